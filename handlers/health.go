package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	gateway *database.Gateway
	logger  *logging.Service
}

func NewHealthHandler(gateway *database.Gateway, logger *logging.Service) *HealthHandler {
	return &HealthHandler{gateway: gateway, logger: logger}
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	if err := h.gateway.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
