package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/internal/apperrors"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/zap"
)

type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger *logging.Service
}

func New(cfg *config.Config, logger *logging.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		cfg:    cfg,
		logger: logger,
	}

	e.HTTPErrorHandler = s.errorHandler
	configureTrustedProxies(e, cfg.Server.TrustedProxies, logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(logging.RequestLogger(logger, "/health"))
	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}
	e.Use(middleware.Secure())

	return s
}

// configureTrustedProxies makes RealIP honour X-Forwarded-For only from
// the listed addresses or CIDR ranges. Without a usable entry the peer
// address is used as is.
func configureTrustedProxies(e *echo.Echo, proxies []string, logger *logging.Service) {
	trust := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	configured := 0
	for _, proxy := range proxies {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}

		if !strings.Contains(proxy, "/") {
			if ip := net.ParseIP(proxy); ip != nil {
				if ip.To4() != nil {
					proxy += "/32"
				} else {
					proxy += "/128"
				}
			}
		}

		_, ipNet, err := net.ParseCIDR(proxy)
		if err != nil {
			logger.Warn("ignoring invalid trusted proxy", zap.String("proxy", proxy), zap.Error(err))
			continue
		}
		trust = append(trust, echo.TrustIPRange(ipNet))
		configured++
	}

	if configured == 0 {
		e.IPExtractor = echo.ExtractIPDirect()
		return
	}
	e.IPExtractor = echo.ExtractIPFromXFFHeader(trust...)
	logger.Info("trusted proxies configured", zap.Int("count", configured))
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var status int
	var message string

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(status)
		}
	} else {
		status = apperrors.HTTPStatus(err)
		message = apperrors.PublicMessage(err)
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, map[string]string{"error": message})
	}
	if err != nil {
		s.logger.Error("failed to write error response", zap.Error(err))
	}
}

func (s *Server) Address() string {
	return fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
}

// Start serves in the background. Listener errors other than a clean
// shutdown are logged.
func (s *Server) Start() {
	addr := s.Address()
	s.logRoutes()
	s.logger.Info("starting server", zap.String("address", addr))

	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped unexpectedly", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) logRoutes() {
	for _, route := range s.echo.Routes() {
		s.logger.Debug("route registered",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
			zap.String("handler", shortenHandlerName(route.Name)))
	}
}

func shortenHandlerName(name string) string {
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if len(name) > 80 {
		name = name[:77] + "..."
	}
	return name
}

func (s *Server) Get(path string, handler echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.echo.GET(path, handler, m...)
}

func (s *Server) Post(path string, handler echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.echo.POST(path, handler, m...)
}

func (s *Server) Patch(path string, handler echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.echo.PATCH(path, handler, m...)
}

func (s *Server) Group(prefix string, m ...echo.MiddlewareFunc) *echo.Group {
	return s.echo.Group(prefix, m...)
}

func (s *Server) Use(m ...echo.MiddlewareFunc) {
	s.echo.Use(m...)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}
