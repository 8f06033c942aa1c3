package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/services/users"
	"github.com/tech-arch1tect/angrymail/services/webhooks"
	"github.com/tech-arch1tect/angrymail/testutils"
	"go.uber.org/fx"
)

func createTestConfig() *config.Config {
	cfg := testutils.GetTestConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	return cfg
}

func TestApp_Start(t *testing.T) {
	t.Run("successful start", func(t *testing.T) {
		fxApp := fx.New(fx.NopLogger)
		app := &App{fx: fxApp}

		err := app.Start()

		assert.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		fxApp.Stop(ctx)
	})

	t.Run("start with error", func(t *testing.T) {
		fxApp := fx.New(
			fx.NopLogger,
			fx.Invoke(func(lc fx.Lifecycle) {
				lc.Append(fx.Hook{OnStart: func(context.Context) error { return assert.AnError }})
			}),
		)
		app := &App{fx: fxApp}

		err := app.Start()

		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestApp_Accessors(t *testing.T) {
	t.Run("server not wired", func(t *testing.T) {
		app := &App{}

		assert.Nil(t, app.Server())
		assert.Nil(t, app.HTTPServer())
		assert.Nil(t, app.Gateway())
	})
}

func TestApp_Lifecycle(t *testing.T) {
	app, err := NewApp().
		WithConfig(createTestConfig()).
		WithMail().
		WithSessions().
		Build()
	require.NoError(t, err)

	require.NotNil(t, app.Server())
	require.NotNil(t, app.Gateway())
	require.NotNil(t, app.Logger())
	assert.Equal(t, "AngryMail Test", app.Config().App.Name)

	require.NoError(t, app.StartTest())

	t.Run("admin account seeded", func(t *testing.T) {
		var admin users.User
		err := app.Gateway().QueryOne(context.Background(), &admin, database.Query{
			Where: "username = ?",
			Args:  []any{"admin"},
		})
		require.NoError(t, err)
		assert.Equal(t, users.RoleAdmin, admin.Role)
	})

	t.Run("routes mounted", func(t *testing.T) {
		for _, path := range []string{"/health", "/openapi.json"} {
			rec := httptest.NewRecorder()
			app.Server().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code, path)
		}
	})

	app.StopTest()

	t.Run("store closed after stop", func(t *testing.T) {
		assert.ErrorIs(t, app.Gateway().Ping(context.Background()), database.ErrClosed)
	})
}

func TestApp_MoltbookEventHandlers(t *testing.T) {
	var received []webhooks.MoltbookEvent
	app, err := NewApp().
		WithConfig(createTestConfig()).
		WithFxOptions(fx.Invoke(func(p *webhooks.MoltbookProcessor) {
			p.On("agent.claimed", func(ctx context.Context, event webhooks.MoltbookEvent) error {
				received = append(received, event)
				return nil
			})
		})).
		Build()
	require.NoError(t, err)
	require.NoError(t, app.StartTest())
	defer app.StopTest()

	req := httptest.NewRequest(http.MethodPost, "/webhook/moltbook",
		strings.NewReader(testutils.TestPayloads.MoltbookAgentClaimed))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Server().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, received, 1)
	assert.Equal(t, "agent.claimed", received[0].Event)
	assert.JSONEq(t, `{"agent":"grumpy-bot","claim_url":"https://moltbook.example/claim/abc"}`, string(received[0].Data))
}
