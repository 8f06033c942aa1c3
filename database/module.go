package database

import (
	"context"

	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Options(
	fx.Provide(ProvideDatabaseFx),
	fx.Provide(ProvideGateway),
)

func ProvideDatabaseFx(cfg *config.Config, modelsOpt *ModelsOption, logger *logging.Service) (*gorm.DB, error) {
	return ProvideDatabase(*cfg, modelsOpt, logger)
}

func ProvideGateway(lc fx.Lifecycle, db *gorm.DB, logger *logging.Service) *Gateway {
	gateway := NewGateway(db, logger.Named("database"))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return gateway.Close()
		},
	})
	return gateway
}
