package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"github.com/tech-arch1tect/angrymail/services/mail"
	"github.com/tech-arch1tect/angrymail/testutils"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestDispatcher(t *testing.T, cfg *config.Config, client *testutils.MockMailClient) *Dispatcher {
	t.Helper()
	mailService, err := mail.NewService(&cfg.Mail, nil, mail.WithClient(client))
	require.NoError(t, err)

	d := NewDispatcher(cfg, mailService, nil)
	d.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

func sentSubject(t *testing.T, client *testutils.MockMailClient) (string, []string) {
	t.Helper()
	require.Len(t, client.Calls, 1)
	messages := client.Calls[0].Arguments.Get(1).([]*gomail.Msg)
	require.Len(t, messages, 1)

	to, err := messages[0].GetRecipients()
	require.NoError(t, err)
	subject := messages[0].GetGenHeader(gomail.HeaderSubject)
	require.Len(t, subject, 1)
	return subject[0], to
}

func TestDispatcher_NotifyWebhookReceived(t *testing.T) {
	payload := json.RawMessage(testutils.TestPayloads.MoltbookAgentClaimed)

	t.Run("sends to admin address", func(t *testing.T) {
		client := &testutils.MockMailClient{}
		client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(nil)
		d := newTestDispatcher(t, testutils.GetTestConfig(), client)

		ok := d.NotifyWebhookReceived(context.Background(), "moltbook", payload)

		assert.True(t, ok)
		subject, to := sentSubject(t, client)
		assert.Equal(t, "AngryMail - New Webhook from moltbook", subject)
		assert.Equal(t, []string{"admin@angrymail.test"}, to)
	})

	t.Run("falls back to from address", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Notifications.AdminEmail = ""
		client := &testutils.MockMailClient{}
		client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(nil)
		d := newTestDispatcher(t, cfg, client)

		ok := d.NotifyWebhookReceived(context.Background(), "moltbook", payload)

		assert.True(t, ok)
		_, to := sentSubject(t, client)
		assert.Equal(t, []string{"noreply@angrymail.test"}, to)
	})

	t.Run("transport failure returns false", func(t *testing.T) {
		client := &testutils.MockMailClient{}
		client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
		d := newTestDispatcher(t, testutils.GetTestConfig(), client)

		assert.False(t, d.NotifyWebhookReceived(context.Background(), "moltbook", payload))
	})

	t.Run("disabled feature flag", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Notifications.Enabled = false
		client := &testutils.MockMailClient{}
		d := newTestDispatcher(t, cfg, client)

		assert.False(t, d.NotifyWebhookReceived(context.Background(), "moltbook", payload))
		client.AssertNotCalled(t, "DialAndSendWithContext", mock.Anything, mock.Anything)
	})

	t.Run("closed transport", func(t *testing.T) {
		client := &testutils.MockMailClient{}
		d := newTestDispatcher(t, testutils.GetTestConfig(), client)
		require.NoError(t, d.mailer.(*mail.Service).Close())

		assert.False(t, d.NotifyWebhookReceived(context.Background(), "moltbook", payload))
		client.AssertNotCalled(t, "DialAndSendWithContext", mock.Anything, mock.Anything)
	})
}

func TestDispatcher_NilTransport(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewDispatcher(testutils.GetTestConfig(), nil, logging.NewFromZap(zap.New(core)))

	assert.False(t, d.NotifyWebhookReceived(context.Background(), "moltbook", nil))
	assert.False(t, d.NotifyClaimVerification(context.Background(), "a@example.com", "X", ""))
	assert.False(t, d.NotifyWebhookReceived(context.Background(), "moltbook", nil))

	assert.Equal(t, 1, logs.FilterMessage("email transport not initialized, notifications will be skipped").Len())

	var nilDispatcher *Dispatcher
	assert.False(t, nilDispatcher.NotifyWebhookReceived(context.Background(), "moltbook", nil))
	assert.False(t, nilDispatcher.Enabled())
}

func TestDispatcher_NotifyClaimVerification(t *testing.T) {
	t.Run("sends multipart notice", func(t *testing.T) {
		client := &testutils.MockMailClient{}
		client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(nil)
		d := newTestDispatcher(t, testutils.GetTestConfig(), client)

		ok := d.NotifyClaimVerification(context.Background(), "agent@example.com", "XK42", "https://moltbook.example/c/1")

		assert.True(t, ok)
		subject, to := sentSubject(t, client)
		assert.Equal(t, "AngryMail - Verify Your Agent Claim", subject)
		assert.Equal(t, []string{"agent@example.com"}, to)
	})

	t.Run("missing recipient", func(t *testing.T) {
		client := &testutils.MockMailClient{}
		d := newTestDispatcher(t, testutils.GetTestConfig(), client)

		assert.False(t, d.NotifyClaimVerification(context.Background(), "", "XK42", ""))
		client.AssertNotCalled(t, "DialAndSendWithContext", mock.Anything, mock.Anything)
	})

	t.Run("invalid recipient", func(t *testing.T) {
		client := &testutils.MockMailClient{}
		d := newTestDispatcher(t, testutils.GetTestConfig(), client)

		assert.False(t, d.NotifyClaimVerification(context.Background(), "not an address", "XK42", ""))
	})
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "{}", indent(nil))
	assert.Equal(t, "{\n  \"a\": 1\n}", indent(json.RawMessage(`{"a":1}`)))
	assert.Equal(t, "not json", indent(json.RawMessage("not json")))
}

func TestProvideDispatcher_NilMailService(t *testing.T) {
	d := ProvideDispatcher(testutils.GetTestConfig(), nil, nil)

	assert.Nil(t, d.mailer)
	assert.False(t, d.Enabled())
}
