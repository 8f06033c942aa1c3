package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmlTemplate "html/template"
	"io/fs"
	"os"
	"strings"
	"sync/atomic"
	textTemplate "text/template"
	"time"

	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/internal/apperrors"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

//go:embed templates/*
var defaultTemplates embed.FS

var (
	ErrClosed           = apperrors.New(apperrors.KindTransport, "mail service is closed")
	ErrTemplateNotFound = errors.New("mail template not found")
)

// Client is the part of the go-mail client the service depends on.
type Client interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Option func(*Service)

// WithClient replaces the SMTP client built from configuration.
func WithClient(client Client) Option {
	return func(s *Service) {
		s.client = client
	}
}

// Service hands messages to an SMTP relay. It is ready once constructed
// and refuses to send after Close.
type Service struct {
	config        *config.MailConfig
	client        Client
	htmlTemplates *htmlTemplate.Template
	textTemplates *textTemplate.Template
	logger        *logging.Service
	closed        atomic.Bool
}

func NewService(cfg *config.MailConfig, logger *logging.Service, opts ...Option) (*Service, error) {
	logger.Info("initializing mail service",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("encryption", cfg.Encryption),
		zap.String("from_address", cfg.FromAddress))

	if cfg.FromAddress == "" {
		logger.Error("mail service initialization failed: FROM_ADDRESS is required")
		return nil, fmt.Errorf("MAIL_FROM_ADDRESS is required")
	}

	service := &Service{
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(service)
	}

	if service.client == nil {
		client, err := newSMTPClient(cfg)
		if err != nil {
			logger.Error("failed to create mail client",
				zap.Error(err),
				zap.String("host", cfg.Host),
				zap.Int("port", cfg.Port))
			return nil, fmt.Errorf("failed to create mail client: %w", err)
		}
		service.client = client
	}

	if err := service.loadTemplates(); err != nil {
		logger.Error("failed to load mail templates", zap.Error(err))
		return nil, fmt.Errorf("failed to load mail templates: %w", err)
	}

	logger.Info("mail service initialized successfully")
	return service, nil
}

func newSMTPClient(cfg *config.MailConfig) (*mail.Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("MAIL_HOST is required")
	}

	var clientOpts []mail.Option

	encryption := cfg.Encryption
	if encryption == "" {
		encryption = "starttls"
		if cfg.Port == 465 {
			encryption = "ssl"
		}
	}

	switch encryption {
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, mail.WithTimeout(cfg.Timeout))
	}

	// Port last so the TLS policy options cannot reset it.
	clientOpts = append(clientOpts, mail.WithPort(cfg.Port))

	return mail.NewClient(cfg.Host, clientOpts...)
}

func (s *Service) templateFS() (fs.FS, error) {
	if s.config.TemplatesDir != "" {
		return os.DirFS(s.config.TemplatesDir), nil
	}
	return fs.Sub(defaultTemplates, "templates")
}

func (s *Service) loadTemplates() error {
	fsys, err := s.templateFS()
	if err != nil {
		return err
	}

	s.htmlTemplates, err = htmlTemplate.ParseFS(fsys, "*.html")
	if err != nil && !isNoMatch(err) {
		return fmt.Errorf("failed to parse HTML templates: %w", err)
	}

	s.textTemplates, err = textTemplate.ParseFS(fsys, "*.txt")
	if err != nil && !isNoMatch(err) {
		return fmt.Errorf("failed to parse text templates: %w", err)
	}

	var htmlCount, textCount int
	if s.htmlTemplates != nil {
		htmlCount = len(s.htmlTemplates.Templates())
	}
	if s.textTemplates != nil {
		textCount = len(s.textTemplates.Templates())
	}
	s.logger.Debug("mail templates loaded",
		zap.Int("html_templates", htmlCount),
		zap.Int("text_templates", textCount))

	return nil
}

func isNoMatch(err error) bool {
	return strings.Contains(err.Error(), "pattern matches no files")
}

// NewMessage returns a message with the configured sender applied.
func (s *Service) NewMessage() (*mail.Msg, error) {
	message := mail.NewMsg()

	var err error
	if s.config.FromName != "" {
		err = message.FromFormat(s.config.FromName, s.config.FromAddress)
	} else {
		err = message.From(s.config.FromAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set FROM address: %w", err)
	}
	message.SetDate()
	message.SetMessageID()

	return message, nil
}

func (s *Service) FromAddress() string {
	return s.config.FromAddress
}

func (s *Service) Send(ctx context.Context, message *mail.Msg) error {
	if s.closed.Load() {
		return ErrClosed
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	err := s.client.DialAndSendWithContext(ctx, message)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("failed to send email",
			zap.Error(err),
			zap.Duration("attempt_duration", duration))
		return apperrors.Transport("failed to send email", err)
	}

	s.logger.Info("email sent successfully", zap.Duration("send_duration", duration))
	return nil
}

// SendTemplate renders name.html and/or name.txt with data. When both
// exist the text part is attached as the alternative body.
func (s *Service) SendTemplate(ctx context.Context, name string, to []string, subject string, data any) error {
	s.logger.Debug("sending template email",
		zap.String("template", name),
		zap.Strings("recipients", to),
		zap.String("subject", subject))

	message, err := s.addressed(to, subject)
	if err != nil {
		return err
	}
	if err := s.render(name, data, message); err != nil {
		s.logger.Error("failed to render template", zap.Error(err), zap.String("template", name))
		return err
	}
	return s.Send(ctx, message)
}

func (s *Service) addressed(to []string, subject string) (*mail.Msg, error) {
	message, err := s.NewMessage()
	if err != nil {
		return nil, err
	}
	if err := message.To(to...); err != nil {
		s.logger.Warn("failed to set TO addresses", zap.Error(err), zap.Strings("recipients", to))
		return nil, apperrors.Wrap(apperrors.KindValidation, "invalid recipient address", err)
	}
	message.Subject(subject)
	return message, nil
}

func (s *Service) render(name string, data any, message *mail.Msg) error {
	var hasHTML bool

	if s.htmlTemplates != nil {
		if tmpl := s.htmlTemplates.Lookup(name + ".html"); tmpl != nil {
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, data); err != nil {
				return fmt.Errorf("failed to execute HTML template: %w", err)
			}
			message.SetBodyString(mail.TypeTextHTML, buf.String())
			hasHTML = true
		}
	}

	if s.textTemplates != nil {
		if tmpl := s.textTemplates.Lookup(name + ".txt"); tmpl != nil {
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, data); err != nil {
				return fmt.Errorf("failed to execute text template: %w", err)
			}
			if hasHTML {
				message.AddAlternativeString(mail.TypeTextPlain, buf.String())
			} else {
				message.SetBodyString(mail.TypeTextPlain, buf.String())
			}
			return nil
		}
	}

	if !hasHTML {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return nil
}

// Close stops the service accepting new messages. go-mail dials per send,
// so there is no connection to tear down.
func (s *Service) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.logger.Info("mail service closed")
	}
	return nil
}

func (s *Service) Closed() bool {
	return s.closed.Load()
}
