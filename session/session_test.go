package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/testutils"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Enabled:  true,
		Store:    "memory",
		Name:     "test_session",
		MaxAge:   time.Hour,
		Path:     "/",
		HttpOnly: true,
		SameSite: "lax",
	}
}

func newSessionEcho(manager *Manager) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(manager))
	e.POST("/login", func(c echo.Context) error {
		if err := Login(c, Identity{ID: 7, Username: "admin", Role: "admin"}); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	e.POST("/logout", func(c echo.Context) error {
		if err := Logout(c); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/me", func(c echo.Context) error {
		identity, ok := Current(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}
		return c.JSON(http.StatusOK, identity)
	})
	return e
}

func do(e *echo.Echo, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "test_session" {
			return cookie
		}
	}
	t.Fatalf("session cookie not set")
	return nil
}

func TestNewManager(t *testing.T) {
	cfg := testSessionConfig()
	cfg.SameSite = "strict"
	cfg.Secure = true

	manager := NewManager(cfg, NewMemoryStore())

	assert.Equal(t, "test_session", manager.Cookie.Name)
	assert.Equal(t, http.SameSiteStrictMode, manager.Cookie.SameSite)
	assert.True(t, manager.Cookie.Secure)
	assert.Equal(t, time.Hour, manager.Lifetime)
}

func TestProvideSessionManager(t *testing.T) {
	gateway := database.NewGateway(testutils.SetupTestDB(t), nil)

	t.Run("disabled", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Session.Enabled = false

		manager, err := ProvideSessionManager(cfg, gateway, nil)

		require.NoError(t, err)
		assert.Nil(t, manager)
	})

	t.Run("memory store", func(t *testing.T) {
		manager, err := ProvideSessionManager(testutils.GetTestConfig(), gateway, nil)

		require.NoError(t, err)
		assert.NotNil(t, manager)
	})

	t.Run("database store", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Session.Store = "database"

		manager, err := ProvideSessionManager(cfg, gateway, nil)

		require.NoError(t, err)
		assert.NotNil(t, manager)
		assert.True(t, gateway.DB().Migrator().HasTable("sessions"))
	})

	t.Run("unsupported store", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Session.Store = "redis"

		_, err := ProvideSessionManager(cfg, gateway, nil)

		assert.EqualError(t, err, "unsupported session store: redis")
	})
}

func TestNewDatabaseStore_NilDB(t *testing.T) {
	store, err := NewDatabaseStore(nil)

	assert.Nil(t, store)
	assert.EqualError(t, err, "database connection cannot be nil")
}

func TestLoginLogout(t *testing.T) {
	e := newSessionEcho(NewManager(testSessionConfig(), NewMemoryStore()))

	rec := do(e, http.MethodGet, "/me")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/login")
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookie := sessionCookie(t, rec)

	rec = do(e, http.MethodGet, "/me", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"username":"admin","role":"admin"}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/logout", cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "/me", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithoutManager(t *testing.T) {
	e := newSessionEcho(nil)

	rec := do(e, http.MethodPost, "/login")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(e, http.MethodPost, "/logout")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "/me")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
