package server

import (
	"context"

	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/fx"
)

func ProvideServer(cfg *config.Config, logger *logging.Service) *Server {
	return New(cfg, logger.Named("http"))
}

// Lifecycle starts the listener on fx start and drains it on stop. It must
// be invoked after route registration so that its stop hook runs before the
// hooks that close the database and mail transport.
func Lifecycle(lc fx.Lifecycle, srv *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			srv.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func NewProvider() fx.Option {
	return fx.Options(
		fx.Provide(ProvideServer),
	)
}
