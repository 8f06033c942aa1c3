package claims

import (
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"github.com/tech-arch1tect/angrymail/services/notify"
	"go.uber.org/fx"
)

func ProvideClaimsService(cfg *config.Config, gateway *database.Gateway, dispatcher *notify.Dispatcher, logger *logging.Service) *Service {
	return NewService(gateway, dispatcher, &cfg.Claims, logger.Named("claims"))
}

var Module = fx.Options(
	fx.Provide(ProvideClaimsService),
)
