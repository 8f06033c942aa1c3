package mail

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/internal/apperrors"
	"github.com/tech-arch1tect/angrymail/testutils"
	"github.com/wneessen/go-mail"
)

func getTestMailConfig() *config.MailConfig {
	return &config.MailConfig{
		Host:        "localhost",
		Port:        2525,
		Encryption:  "none",
		FromAddress: "noreply@angrymail.test",
		FromName:    "AngryMail",
	}
}

func capturedMessage(t *testing.T, client *testutils.MockMailClient) string {
	t.Helper()
	require.Len(t, client.Calls, 1)
	messages := client.Calls[0].Arguments.Get(1).([]*mail.Msg)
	require.Len(t, messages, 1)

	var buf bytes.Buffer
	_, err := messages[0].WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestNewService(t *testing.T) {
	t.Run("with injected client", func(t *testing.T) {
		client := &testutils.MockMailClient{}

		service, err := NewService(getTestMailConfig(), nil, WithClient(client))

		require.NoError(t, err)
		assert.Equal(t, client, service.client)
		assert.NotNil(t, service.textTemplates)
		assert.NotNil(t, service.htmlTemplates)
	})

	t.Run("builds smtp client from config", func(t *testing.T) {
		service, err := NewService(getTestMailConfig(), nil)

		require.NoError(t, err)
		assert.NotNil(t, service.client)
	})

	t.Run("missing from address", func(t *testing.T) {
		cfg := getTestMailConfig()
		cfg.FromAddress = ""

		service, err := NewService(cfg, nil, WithClient(&testutils.MockMailClient{}))

		require.Error(t, err)
		assert.Nil(t, service)
		assert.Contains(t, err.Error(), "MAIL_FROM_ADDRESS is required")
	})

	t.Run("missing host without injected client", func(t *testing.T) {
		cfg := getTestMailConfig()
		cfg.Host = ""

		_, err := NewService(cfg, nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "MAIL_HOST is required")
	})

	t.Run("templates directory override", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.txt"), []byte("hello {{.}}"), 0o644))
		cfg := getTestMailConfig()
		cfg.TemplatesDir = dir

		service, err := NewService(cfg, nil, WithClient(&testutils.MockMailClient{}))

		require.NoError(t, err)
		assert.Nil(t, service.htmlTemplates)
		assert.NotNil(t, service.textTemplates.Lookup("custom.txt"))
	})
}

func TestService_SendTemplate(t *testing.T) {
	t.Run("html with text alternative", func(t *testing.T) {
		client := &testutils.MockMailClient{}
		client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(nil)
		service, err := NewService(getTestMailConfig(), nil, WithClient(client))
		require.NoError(t, err)

		err = service.SendTemplate(context.Background(), "claim_verification", []string{"agent@example.com"}, "Verify", map[string]any{
			"AppName":          "AngryMail",
			"VerificationCode": "XK42",
			"ClaimURL":         "https://moltbook.example/c/1",
			"SiteDomain":       "angrymail.test",
		})

		require.NoError(t, err)
		raw := capturedMessage(t, client)
		assert.Contains(t, raw, "text/html")
		assert.Contains(t, raw, "text/plain")
		assert.Contains(t, raw, "XK42")
	})

	t.Run("text only", func(t *testing.T) {
		client := &testutils.MockMailClient{}
		client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(nil)
		service, err := NewService(getTestMailConfig(), nil, WithClient(client))
		require.NoError(t, err)

		err = service.SendTemplate(context.Background(), "webhook_received", []string{"ops@example.com"}, "Status", map[string]any{
			"Source":     "moltbook",
			"ReceivedAt": "2026-01-02T03:04:05Z",
			"Payload":    `{"event":"agent.claimed"}`,
		})

		require.NoError(t, err)
		raw := capturedMessage(t, client)
		assert.Contains(t, raw, "Subject: Status")
		assert.Contains(t, raw, "ops@example.com")
		assert.Contains(t, raw, "noreply@angrymail.test")
		assert.Contains(t, raw, "Source: moltbook")
		assert.NotContains(t, raw, "text/html")
	})

	t.Run("unknown template", func(t *testing.T) {
		client := &testutils.MockMailClient{}
		service, err := NewService(getTestMailConfig(), nil, WithClient(client))
		require.NoError(t, err)

		err = service.SendTemplate(context.Background(), "nope", []string{"a@example.com"}, "x", nil)

		assert.ErrorIs(t, err, ErrTemplateNotFound)
		client.AssertNotCalled(t, "DialAndSendWithContext", mock.Anything, mock.Anything)
	})

	t.Run("invalid recipient", func(t *testing.T) {
		client := &testutils.MockMailClient{}
		service, err := NewService(getTestMailConfig(), nil, WithClient(client))
		require.NoError(t, err)

		err = service.SendTemplate(context.Background(), "webhook_received", []string{"not an address"}, "x", nil)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestService_SendFailure(t *testing.T) {
	client := &testutils.MockMailClient{}
	client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	service, err := NewService(getTestMailConfig(), nil, WithClient(client))
	require.NoError(t, err)

	err = service.SendTemplate(context.Background(), "webhook_received", []string{"ops@example.com"}, "x", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestService_Close(t *testing.T) {
	client := &testutils.MockMailClient{}
	service, err := NewService(getTestMailConfig(), nil, WithClient(client))
	require.NoError(t, err)

	require.NoError(t, service.Close())
	require.NoError(t, service.Close())
	assert.True(t, service.Closed())

	err = service.SendTemplate(context.Background(), "webhook_received", []string{"ops@example.com"}, "x", nil)

	assert.ErrorIs(t, err, ErrClosed)
	client.AssertNotCalled(t, "DialAndSendWithContext", mock.Anything, mock.Anything)
}
