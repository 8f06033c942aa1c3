package app

import (
	"fmt"

	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/handlers"
	"github.com/tech-arch1tect/angrymail/server"
	"github.com/tech-arch1tect/angrymail/services/claims"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"github.com/tech-arch1tect/angrymail/services/mail"
	"github.com/tech-arch1tect/angrymail/services/notify"
	"github.com/tech-arch1tect/angrymail/services/users"
	"github.com/tech-arch1tect/angrymail/services/webhooks"
	"github.com/tech-arch1tect/angrymail/session"
	"go.uber.org/fx"
)

type AppBuilder struct {
	config    *config.Config
	services  map[string]bool
	models    []any
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		services:  make(map[string]bool),
		models:    make([]any, 0),
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

// WithModels migrates additional models alongside the core tables.
func (b *AppBuilder) WithModels(models ...any) *AppBuilder {
	b.models = append(b.models, models...)
	return b
}

// WithMail enables the SMTP transport. Without it notifications are
// skipped and logged.
func (b *AppBuilder) WithMail() *AppBuilder {
	b.services["mail"] = true
	return b
}

// WithSessions enables admin logins.
func (b *AppBuilder) WithSessions() *AppBuilder {
	b.services["sessions"] = true
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	if b.config == nil {
		if err := b.WithAutoConfig().validate(); err != nil {
			return nil, err
		}
	}

	app := &App{config: b.config}

	options := b.buildFxOptions()
	options = append(options, fx.Populate(&app.logger, &app.server, &app.gateway))

	fxApp := fx.New(options...)
	if err := fxApp.Err(); err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}
	app.fx = fxApp

	return app, nil
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, fmt.Errorf("%s", msg))
}

func (b *AppBuilder) validate() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("configuration errors: %v", b.errors)
	}

	if b.config == nil {
		return nil
	}

	if b.services["mail"] && !b.config.Notifications.Enabled {
		b.services["mail"] = false
	}

	if b.config.Session.Enabled && !b.services["sessions"] {
		b.services["sessions"] = true
	}

	return nil
}

// coreModels are the tables every deployment needs.
func (b *AppBuilder) coreModels() []any {
	models := []any{&claims.Claim{}, &webhooks.Log{}, &users.User{}}
	return append(models, b.models...)
}

// buildFxOptions assembles the container. Route registration comes before
// the server lifecycle so that, on stop, the listener drains before the
// database and mail transport close.
func (b *AppBuilder) buildFxOptions() []fx.Option {
	options := []fx.Option{
		fx.Supply(b.config),
		fx.Supply(database.WithModels(b.coreModels()...)),
		fx.NopLogger,
		logging.Module,
		database.Module,
	}

	if b.services["mail"] {
		options = append(options, mail.Module)
	} else {
		options = append(options, fx.Provide(func() *mail.Service { return nil }))
	}

	options = append(options,
		notify.Module,
		claims.Module,
		webhooks.Module,
		users.Module,
	)

	if b.services["sessions"] {
		options = append(options, session.Module)
	}

	options = append(options,
		server.NewProvider(),
		handlers.Module,
	)

	options = append(options, b.fxOptions...)
	options = append(options, fx.Invoke(server.Lifecycle))

	return options
}
