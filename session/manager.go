package session

import (
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Manager struct {
	*scs.SessionManager
	config config.SessionConfig
}

func NewManager(cfg config.SessionConfig, store scs.Store) *Manager {
	sessionManager := scs.New()
	sessionManager.Store = store
	sessionManager.Lifetime = cfg.MaxAge
	sessionManager.IdleTimeout = cfg.MaxAge
	sessionManager.Cookie.Name = cfg.Name
	sessionManager.Cookie.Path = cfg.Path
	sessionManager.Cookie.Domain = cfg.Domain
	sessionManager.Cookie.Secure = cfg.Secure
	sessionManager.Cookie.HttpOnly = cfg.HttpOnly

	switch cfg.SameSite {
	case "strict":
		sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	case "none":
		sessionManager.Cookie.SameSite = http.SameSiteNoneMode
	default:
		sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	}

	return &Manager{
		SessionManager: sessionManager,
		config:         cfg,
	}
}

// ProvideSessionManager returns nil when sessions are disabled; the admin
// routes then reject every request as unauthenticated.
func ProvideSessionManager(cfg *config.Config, gateway *database.Gateway, logger *logging.Service) (*Manager, error) {
	if !cfg.Session.Enabled {
		logger.Info("sessions disabled")
		return nil, nil
	}

	var store scs.Store
	switch cfg.Session.Store {
	case "memory":
		store = NewMemoryStore()
	case "database":
		var err error
		store, err = NewDatabaseStore(gateway.DB())
		if err != nil {
			return nil, fmt.Errorf("failed to create database session store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.Session.Store)
	}

	logger.Info("session manager initialized",
		zap.String("store", cfg.Session.Store),
		zap.Duration("max_age", cfg.Session.MaxAge))
	return NewManager(cfg.Session, store), nil
}

var Module = fx.Module("session",
	fx.Provide(ProvideSessionManager),
)
