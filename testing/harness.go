package e2etesting

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/angrymail/app"
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/testutils"
)

// Harness runs the fully wired application behind an httptest server.
type Harness struct {
	App        *app.App
	TestServer *httptest.Server
	BaseURL    string
	Config     *config.Config
	Coverage   *CoverageTracker
}

// TestConfig returns the shared fixture config bound to an ephemeral port.
func TestConfig() *config.Config {
	cfg := testutils.GetTestConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	return cfg
}

// NewHarness builds and starts the application. It is stopped when the
// test finishes.
func NewHarness(t *testing.T, cfg *config.Config) *Harness {
	t.Helper()

	if cfg == nil {
		cfg = TestConfig()
	}

	built, err := app.NewApp().WithConfig(cfg).WithSessions().Build()
	require.NoError(t, err, "failed to build test app")

	tracker := NewCoverageTracker()
	built.Server().Use(tracker.TrackingMiddleware())
	tracker.RegisterRoutes(built.Server())

	require.NoError(t, built.StartTest(), "failed to start test app")

	ts := httptest.NewServer(built.Server())

	t.Cleanup(func() {
		ts.Close()
		built.StopTest()
	})

	return &Harness{
		App:        built,
		TestServer: ts,
		BaseURL:    ts.URL,
		Config:     cfg,
		Coverage:   tracker,
	}
}

func (h *Harness) Client() *HTTPClient {
	return NewHTTPClient(h.BaseURL)
}

// AdminClient returns a cookie-carrying client that has logged in with the
// seeded admin account.
func (h *Harness) AdminClient(t *testing.T) *HTTPClient {
	t.Helper()

	client := h.Client().WithCookieJar()
	resp, err := client.Post("/admin/login", map[string]string{
		"username": h.Config.Admin.Username,
		"password": h.Config.Admin.Password,
	})
	require.NoError(t, err)
	resp.AssertStatus(t, 200)
	return client
}
