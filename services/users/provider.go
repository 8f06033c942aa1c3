package users

import (
	"context"

	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/fx"
)

func ProvideUserService(cfg *config.Config, gateway *database.Gateway, logger *logging.Service) *Service {
	return NewService(gateway, &cfg.Admin, logger.Named("users"))
}

// SeedAdmin creates the configured admin account once the store is ready.
func SeedAdmin(lc fx.Lifecycle, service *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return service.EnsureAdminUser(ctx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(ProvideUserService),
	fx.Invoke(SeedAdmin),
)
