package notify

import (
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"github.com/tech-arch1tect/angrymail/services/mail"
	"go.uber.org/fx"
)

func ProvideDispatcher(cfg *config.Config, mailService *mail.Service, logger *logging.Service) *Dispatcher {
	var mailer Mailer
	if mailService != nil {
		mailer = mailService
	}
	return NewDispatcher(cfg, mailer, logger.Named("notify"))
}

var Module = fx.Options(
	fx.Provide(ProvideDispatcher),
)
