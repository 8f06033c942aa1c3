package mail

import (
	"context"

	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/fx"
)

// ProvideMailService returns a nil service, not an error, when
// notifications are disabled or SMTP is not configured. Consumers treat
// a nil service as "no transport".
func ProvideMailService(lc fx.Lifecycle, cfg *config.Config, logger *logging.Service) (*Service, error) {
	logger = logger.Named("mail")

	if !cfg.Notifications.Enabled {
		logger.Info("email notifications disabled")
		return nil, nil
	}
	if cfg.Mail.Host == "" {
		logger.Warn("SMTP not configured, emails will not be sent")
		return nil, nil
	}

	service, err := NewService(&cfg.Mail, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return service.Close()
		},
	})
	return service, nil
}

var Module = fx.Options(
	fx.Provide(ProvideMailService),
)
