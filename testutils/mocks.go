package testutils

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
	"github.com/wneessen/go-mail"
)

// MockMailClient stands in for the go-mail SMTP client.
type MockMailClient struct {
	mock.Mock
}

func (m *MockMailClient) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	args := m.Called(ctx, messages)
	return args.Error(0)
}

// MockWebhookNotifier records webhook notifications and returns a scripted
// delivery outcome.
type MockWebhookNotifier struct {
	mock.Mock
}

func (m *MockWebhookNotifier) NotifyWebhookReceived(ctx context.Context, source string, payload json.RawMessage) bool {
	args := m.Called(ctx, source, payload)
	return args.Bool(0)
}

// MockClaimNotifier records claim verification notices.
type MockClaimNotifier struct {
	mock.Mock
}

func (m *MockClaimNotifier) NotifyClaimVerification(ctx context.Context, email, code, claimURL string) bool {
	args := m.Called(ctx, email, code, claimURL)
	return args.Bool(0)
}
