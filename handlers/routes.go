package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/middleware/adminauth"
	"github.com/tech-arch1tect/angrymail/openapi"
	"github.com/tech-arch1tect/angrymail/server"
	"github.com/tech-arch1tect/angrymail/services/claims"
	"github.com/tech-arch1tect/angrymail/services/webhooks"
	"github.com/tech-arch1tect/angrymail/session"
	"go.uber.org/fx"
)

const sessionScheme = "session"

type RouteParams struct {
	fx.In

	Server   *server.Server
	Config   *config.Config
	Sessions *session.Manager `optional:"true"`
	Claims   *ClaimHandler
	Webhooks *WebhookHandler
	Admin    *AdminHandler
	Health   *HealthHandler
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Register mounts every route on the server and documents it in the
// served API description.
func Register(p RouteParams) *openapi.OpenAPI {
	docs := openapi.New(p.Config.App.Name, p.Config.App.Version).
		Description("Agent claim submissions, webhook intake and the admin API").
		Server(p.Config.App.URL, "").
		Tag("claims", "Public claim submission and status").
		Tag("webhooks", "Inbound webhook intake").
		Tag("admin", "Session-authenticated administration").
		CookieAuth(sessionScheme, p.Config.Session.Name, "Admin session cookie set by /admin/login")

	r := &router{docs: docs}

	p.Server.Get("/health", p.Health.Check)
	p.Server.Get("/openapi.json", docs.JSONHandler())
	p.Server.Get("/openapi.yaml", docs.YAMLHandler())

	api := p.Server.Group("/api")
	r.add(api, http.MethodPost, "/api", "/claims/submit", p.Claims.Submit).
		Summary("Submit an agent claim").
		Tags("claims").
		Body(SubmitClaimRequest{}, "Claim URL and/or verification code").
		Response(http.StatusOK, SubmitClaimResponse{}, "Claim recorded as pending").
		Response(http.StatusBadRequest, ErrorResponse{}, "Validation failed").
		Build()
	r.add(api, http.MethodGet, "/api", "/claims/:id", p.Claims.Status).
		Summary("Get claim status").
		Tags("claims").
		PathParam("id", "Claim ID").
		Response(http.StatusOK, claims.PublicClaim{}, "Public claim projection").
		Response(http.StatusNotFound, ErrorResponse{}, "Claim not found").
		Build()

	hooks := p.Server.Group("/webhook")
	r.add(hooks, http.MethodPost, "/webhook", "/moltbook", p.Webhooks.Moltbook).
		Summary("Receive a Moltbook event").
		Tags("webhooks").
		Body(webhooks.MoltbookEvent{}, "Moltbook event envelope").
		Response(http.StatusOK, WebhookResponse{}, "Webhook processed").
		Response(http.StatusBadRequest, ErrorResponse{}, "Body is not JSON").
		Response(http.StatusInternalServerError, WebhookFailureResponse{}, "Processing failed; the log is kept as failed").
		Build()
	r.add(hooks, http.MethodPost, "/webhook", "/generic", p.Webhooks.Generic).
		Summary("Receive a webhook from any source").
		Tags("webhooks").
		QueryParam("source", "Source label, defaults to unknown").
		Body(map[string]any{}, "Arbitrary JSON document").
		Response(http.StatusOK, WebhookResponse{}, "Webhook logged").
		Build()

	admin := p.Server.Group("/admin", session.Middleware(p.Sessions))
	authed := []echo.MiddlewareFunc{adminauth.RequireAuth()}
	adminOnly := []echo.MiddlewareFunc{adminauth.RequireAuth(), adminauth.RequireAdmin()}

	r.add(admin, http.MethodPost, "/admin", "/login", p.Admin.Login).
		Summary("Log in").
		Tags("admin").
		Body(LoginRequest{}, "Admin credentials").
		Response(http.StatusOK, LoginResponse{}, "Session established").
		Response(http.StatusBadRequest, ErrorResponse{}, "Missing credentials").
		Response(http.StatusUnauthorized, ErrorResponse{}, "Invalid credentials").
		Build()
	r.add(admin, http.MethodPost, "/admin", "/logout", p.Admin.Logout).
		Summary("Log out").
		Tags("admin").
		Response(http.StatusOK, SuccessResponse{}, "Session destroyed").
		Build()
	r.add(admin, http.MethodGet, "/admin", "/me", p.Admin.Me, authed...).
		Summary("Current user").
		Tags("admin").
		Security(sessionScheme).
		Response(http.StatusOK, MeResponse{}, "Logged-in identity").
		Response(http.StatusUnauthorized, ErrorResponse{}, "Authentication required").
		Build()
	r.add(admin, http.MethodGet, "/admin", "/stats", p.Admin.Stats, authed...).
		Summary("Dashboard statistics").
		Tags("admin").
		Security(sessionScheme).
		Response(http.StatusOK, StatsResponse{}, "Counts and recent claims").
		Build()
	r.add(admin, http.MethodGet, "/admin", "/claims", p.Claims.List, authed...).
		Summary("List claims").
		Tags("admin").
		Security(sessionScheme).
		QueryParam("status", "Status filter", "all", string(claims.StatusPending), string(claims.StatusVerified), string(claims.StatusRejected)).
		QueryInt("page", "Page number", 1).
		QueryInt("limit", "Page size", p.Config.Claims.DefaultPageSize).
		Response(http.StatusOK, claims.ClaimPage{}, "Claims, newest first").
		Response(http.StatusBadRequest, ErrorResponse{}, "Invalid status").
		Build()
	r.add(admin, http.MethodPatch, "/admin", "/claims/:id", p.Claims.UpdateStatus, adminOnly...).
		Summary("Set claim status").
		Tags("admin").
		Security(sessionScheme).
		PathParam("id", "Claim ID").
		Body(UpdateClaimRequest{}, "New status and the version last read").
		Response(http.StatusOK, UpdateClaimResponse{}, "Updated claim").
		Response(http.StatusBadRequest, ErrorResponse{}, "Invalid status").
		Response(http.StatusForbidden, ErrorResponse{}, "Admin access required").
		Response(http.StatusNotFound, ErrorResponse{}, "Claim not found").
		Response(http.StatusConflict, ErrorResponse{}, "Claim changed since it was read").
		Build()
	r.add(admin, http.MethodPost, "/admin", "/claims/:id/notify", p.Claims.Notify, adminOnly...).
		Summary("Email the verification code").
		Tags("admin").
		Security(sessionScheme).
		PathParam("id", "Claim ID").
		Body(NotifyClaimRequest{}, "Recipient address").
		Response(http.StatusOK, SuccessResponse{}, "Whether the message was handed to the transport").
		Build()
	r.add(admin, http.MethodGet, "/admin", "/webhooks", p.Webhooks.List, authed...).
		Summary("List webhook logs").
		Tags("admin").
		Security(sessionScheme).
		QueryParam("status", "Status filter", "all", string(webhooks.StatusReceived), string(webhooks.StatusProcessed), string(webhooks.StatusFailed)).
		QueryParam("source", "Source filter").
		QueryInt("page", "Page number", 1).
		QueryInt("limit", "Page size", p.Config.Webhook.DefaultPageSize).
		Response(http.StatusOK, webhooks.LogPage{}, "Webhook logs, newest first").
		Build()

	return docs
}

type router struct {
	docs *openapi.OpenAPI
}

func (r *router) add(g *echo.Group, method, prefix, path string, handler echo.HandlerFunc, m ...echo.MiddlewareFunc) *openapi.RouteBuilder {
	g.Add(method, path, handler, m...)
	return r.docs.Document(method, prefix+path)
}
