package handlers

import (
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/services/claims"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"github.com/tech-arch1tect/angrymail/services/users"
	"github.com/tech-arch1tect/angrymail/services/webhooks"
	"go.uber.org/fx"
)

func ProvideWebhookHandler(pipeline *webhooks.Pipeline, processor *webhooks.MoltbookProcessor, logger *logging.Service) *WebhookHandler {
	return NewWebhookHandler(pipeline, processor, logger.Named("handlers"))
}

func ProvideAdminHandler(userService *users.Service, claimService *claims.Service, pipeline *webhooks.Pipeline, logger *logging.Service) *AdminHandler {
	return NewAdminHandler(userService, claimService, pipeline, logger.Named("handlers"))
}

func ProvideHealthHandler(gateway *database.Gateway, logger *logging.Service) *HealthHandler {
	return NewHealthHandler(gateway, logger.Named("health"))
}

// Module provides the handlers and mounts the routes. Server lifecycle
// hooks must be registered after it.
var Module = fx.Options(
	fx.Provide(NewClaimHandler),
	fx.Provide(ProvideWebhookHandler),
	fx.Provide(ProvideAdminHandler),
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(Register),
)
