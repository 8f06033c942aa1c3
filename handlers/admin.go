package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/angrymail/middleware/adminauth"
	"github.com/tech-arch1tect/angrymail/services/claims"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"github.com/tech-arch1tect/angrymail/services/users"
	"github.com/tech-arch1tect/angrymail/services/webhooks"
	"github.com/tech-arch1tect/angrymail/session"
	"go.uber.org/zap"
)

const recentClaimsLimit = 10

type AdminHandler struct {
	users    *users.Service
	claims   *claims.Service
	pipeline *webhooks.Pipeline
	logger   *logging.Service
}

func NewAdminHandler(userService *users.Service, claimService *claims.Service, pipeline *webhooks.Pipeline, logger *logging.Service) *AdminHandler {
	return &AdminHandler{
		users:    userService,
		claims:   claimService,
		pipeline: pipeline,
		logger:   logger,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool             `json:"success"`
	User    session.Identity `json:"user"`
}

type MeResponse struct {
	User session.Identity `json:"user"`
}

type Stats struct {
	PendingClaims    int64 `json:"pending_claims"`
	FailedWebhooks   int64 `json:"failed_webhooks"`
	ReceivedWebhooks int64 `json:"received_webhooks"`
}

type StatsResponse struct {
	Stats        Stats          `json:"stats"`
	RecentClaims []claims.Claim `json:"recent_claims"`
}

func (h *AdminHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.users.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	identity := session.Identity{
		ID:       user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}
	if err := session.Login(c, identity); err != nil {
		h.logger.Error("failed to establish session", zap.Error(err), zap.Uint("user_id", user.ID))
		return err
	}

	return c.JSON(http.StatusOK, LoginResponse{Success: true, User: identity})
}

func (h *AdminHandler) Logout(c echo.Context) error {
	if err := session.Logout(c); err != nil {
		h.logger.Error("failed to destroy session", zap.Error(err))
		return err
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *AdminHandler) Me(c echo.Context) error {
	identity, ok := adminauth.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return c.JSON(http.StatusOK, MeResponse{User: identity})
}

func (h *AdminHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	var stats Stats
	var err error
	if stats.PendingClaims, err = h.claims.CountByStatus(ctx, claims.StatusPending); err != nil {
		return err
	}
	if stats.FailedWebhooks, err = h.pipeline.CountByStatus(ctx, webhooks.StatusFailed); err != nil {
		return err
	}
	if stats.ReceivedWebhooks, err = h.pipeline.CountByStatus(ctx, webhooks.StatusReceived); err != nil {
		return err
	}

	recent, err := h.claims.RecentClaims(ctx, recentClaimsLimit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, StatsResponse{Stats: stats, RecentClaims: recent})
}
