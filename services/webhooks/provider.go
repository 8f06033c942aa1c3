package webhooks

import (
	"context"

	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"github.com/tech-arch1tect/angrymail/services/notify"
	"go.uber.org/fx"
)

func ProvidePipeline(cfg *config.Config, gateway *database.Gateway, dispatcher *notify.Dispatcher, logger *logging.Service) *Pipeline {
	return NewPipeline(gateway, dispatcher, &cfg.Webhook, logger.Named("webhooks"))
}

func ProvideMoltbookProcessor(logger *logging.Service) *MoltbookProcessor {
	return NewMoltbookProcessor(logger.Named("moltbook"))
}

func ProvideReconciler(lc fx.Lifecycle, cfg *config.Config, pipeline *Pipeline, logger *logging.Service) *Reconciler {
	reconciler := NewReconciler(pipeline, cfg.Webhook.ReconcileInterval, cfg.Webhook.StaleAfter, logger.Named("reconciler"))

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			reconciler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return reconciler.Stop(ctx)
		},
	})
	return reconciler
}

var Module = fx.Options(
	fx.Provide(ProvidePipeline),
	fx.Provide(ProvideMoltbookProcessor),
	fx.Provide(ProvideReconciler),
	fx.Invoke(func(*Reconciler) {}),
)
