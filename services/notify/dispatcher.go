package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/zap"
)

const (
	TemplateWebhookReceived   = "webhook_received"
	TemplateClaimVerification = "claim_verification"
)

// Mailer is the transport the dispatcher hands messages to.
type Mailer interface {
	SendTemplate(ctx context.Context, name string, to []string, subject string, data any) error
	FromAddress() string
	Closed() bool
}

type WebhookReceivedData struct {
	AppName    string
	Source     string
	ReceivedAt string
	Payload    string
}

type ClaimVerificationData struct {
	AppName          string
	VerificationCode string
	ClaimURL         string
	SiteDomain       string
}

// Dispatcher turns pipeline events into e-mail. None of its methods fail
// the caller: every problem is logged and reported as false.
type Dispatcher struct {
	mailer   Mailer
	config   *config.Config
	logger   *logging.Service
	warnOnce sync.Once
	now      func() time.Time
}

func NewDispatcher(cfg *config.Config, mailer Mailer, logger *logging.Service) *Dispatcher {
	return &Dispatcher{
		mailer: mailer,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Enabled reports whether a send would be attempted at all.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.config.Notifications.Enabled && d.mailer != nil
}

func (d *Dispatcher) NotifyWebhookReceived(ctx context.Context, source string, payload json.RawMessage) bool {
	if !d.ready() {
		return false
	}

	recipient := d.config.Notifications.AdminEmail
	if recipient == "" {
		recipient = d.mailer.FromAddress()
	}
	if recipient == "" {
		d.logger.Warn("no admin address for webhook notification", zap.String("source", source))
		return false
	}

	data := WebhookReceivedData{
		AppName:    d.config.App.Name,
		Source:     source,
		ReceivedAt: d.now().UTC().Format(time.RFC3339),
		Payload:    indent(payload),
	}
	subject := fmt.Sprintf("AngryMail - New Webhook from %s", source)

	return d.send(ctx, TemplateWebhookReceived, recipient, subject, data)
}

func (d *Dispatcher) NotifyClaimVerification(ctx context.Context, email, code, claimURL string) bool {
	if !d.ready() {
		return false
	}
	if email == "" {
		d.logger.Warn("claim verification notice without recipient")
		return false
	}

	data := ClaimVerificationData{
		AppName:          d.config.App.Name,
		VerificationCode: code,
		ClaimURL:         claimURL,
		SiteDomain:       d.config.App.SiteDomain,
	}

	return d.send(ctx, TemplateClaimVerification, email, "AngryMail - Verify Your Agent Claim", data)
}

func (d *Dispatcher) ready() bool {
	if d == nil || !d.config.Notifications.Enabled {
		return false
	}
	if d.mailer == nil {
		d.warnOnce.Do(func() {
			d.logger.Warn("email transport not initialized, notifications will be skipped")
		})
		return false
	}
	if d.mailer.Closed() {
		d.logger.Warn("email transport closed, notification skipped")
		return false
	}
	return true
}

func (d *Dispatcher) send(ctx context.Context, template, recipient, subject string, data any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification panicked", zap.Any("panic", r), zap.String("template", template))
			ok = false
		}
	}()

	if err := d.mailer.SendTemplate(ctx, template, []string{recipient}, subject, data); err != nil {
		d.logger.Warn("notification not delivered",
			zap.Error(err),
			zap.String("template", template),
			zap.String("recipient", recipient))
		return false
	}

	d.logger.Info("notification sent",
		zap.String("template", template),
		zap.String("recipient", recipient))
	return true
}

func indent(payload json.RawMessage) string {
	if len(payload) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return string(payload)
	}
	return buf.String()
}
