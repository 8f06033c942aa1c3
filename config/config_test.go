package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	var cfg Config
	err := LoadConfig(&cfg)

	require.NoError(t, err)

	assert.Equal(t, "AngryMail", cfg.App.Name)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "10M", cfg.Server.BodyLimit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "angrymail.db", cfg.Database.DSN)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, 50, cfg.Claims.DefaultPageSize)
	assert.Equal(t, 200, cfg.Claims.MaxPageSize)
	assert.Equal(t, []string{"moltbook"}, cfg.Webhook.NotifySources)
	assert.Equal(t, 5*time.Minute, cfg.Webhook.ReconcileInterval)
	assert.Equal(t, 15*time.Minute, cfg.Webhook.StaleAfter)
}

func TestLoadConfig_EnvironmentVariables(t *testing.T) {
	clearEnvVars(t)

	os.Setenv("SERVER_PORT", "9000")
	os.Setenv("DATABASE_DRIVER", "mysql")
	os.Setenv("DATABASE_DSN", "user:pass@tcp(localhost:3306)/angrymail?parseTime=true")
	os.Setenv("MAIL_HOST", "smtp.example.com")
	os.Setenv("MAIL_PORT", "465")
	os.Setenv("MAIL_ENCRYPTION", "ssl")
	os.Setenv("NOTIFICATIONS_ENABLED", "true")
	os.Setenv("NOTIFICATIONS_ADMIN_EMAIL", "ops@example.com")
	os.Setenv("ADMIN_USER", "root")
	os.Setenv("ADMIN_PASS", "hunter22")
	os.Setenv("WEBHOOK_NOTIFY_SOURCES", "moltbook,github")
	os.Setenv("WEBHOOK_RECONCILE_INTERVAL", "1m")

	var cfg Config
	err := LoadConfig(&cfg)

	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, 465, cfg.Mail.Port)
	assert.Equal(t, "ssl", cfg.Mail.Encryption)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, "ops@example.com", cfg.Notifications.AdminEmail)
	assert.Equal(t, "root", cfg.Admin.Username)
	assert.Equal(t, "hunter22", cfg.Admin.Password)
	assert.Equal(t, []string{"moltbook", "github"}, cfg.Webhook.NotifySources)
	assert.Equal(t, time.Minute, cfg.Webhook.ReconcileInterval)
}

func TestLoadConfig_CommaSeparatedProxies(t *testing.T) {
	clearEnvVars(t)

	os.Setenv("SERVER_TRUSTED_PROXIES", "192.168.1.1,10.0.0.0/8")

	var cfg Config
	err := LoadConfig(&cfg)

	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.1.1", "10.0.0.0/8"}, cfg.Server.TrustedProxies)
}

func TestLoadConfig_ValidationIntegration(t *testing.T) {
	t.Run("unsupported driver", func(t *testing.T) {
		clearEnvVars(t)
		os.Setenv("DATABASE_DRIVER", "oracle")

		var cfg Config
		err := LoadConfig(&cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("bad session store", func(t *testing.T) {
		clearEnvVars(t)
		os.Setenv("SESSION_STORE", "redis")

		var cfg Config
		err := LoadConfig(&cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "session store must be")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
			Mail:     MailConfig{Encryption: "starttls", Port: 587},
			Session:  SessionConfig{Enabled: true, Store: "memory", SameSite: "lax"},
			Admin:    AdminConfig{BcryptCost: 10},
			Claims:   ClaimsConfig{DefaultPageSize: 50, MaxPageSize: 200},
			Webhook:  WebhookConfig{DefaultPageSize: 50, MaxPageSize: 200, ReconcileInterval: time.Minute, StaleAfter: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: "database DSN is required"},
		{name: "bad encryption", mutate: func(c *Config) { c.Mail.Encryption = "rot13" }, wantErr: "mail encryption must be"},
		{name: "bad same-site", mutate: func(c *Config) { c.Session.SameSite = "maybe" }, wantErr: "same-site must be"},
		{name: "sessions disabled skip store check", mutate: func(c *Config) { c.Session = SessionConfig{} }},
		{name: "max below default", mutate: func(c *Config) { c.Claims.MaxPageSize = 10 }, wantErr: "claims max page size"},
		{name: "zero default", mutate: func(c *Config) { c.Webhook.DefaultPageSize = 0 }, wantErr: "webhook default page size"},
		{name: "stale after missing", mutate: func(c *Config) { c.Webhook.StaleAfter = 0 }, wantErr: "stale-after must be positive"},
		{name: "bcrypt cost", mutate: func(c *Config) { c.Admin.BcryptCost = 2 }, wantErr: "bcrypt cost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := Validate(cfg)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_NonConfigStruct(t *testing.T) {
	type CustomConfig struct {
		Name string `env:"NAME" envDefault:"default"`
	}

	var cfg CustomConfig
	err := LoadConfig(&cfg)

	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Name)
}

func clearEnvVars(t *testing.T) {
	t.Helper()

	envVars := []string{
		"APP_NAME", "APP_URL", "APP_SITE_DOMAIN",
		"SERVER_PORT", "SERVER_HOST", "SERVER_TRUSTED_PROXIES",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT",
		"DATABASE_DRIVER", "DATABASE_DSN", "DATABASE_AUTO_MIGRATE",
		"MAIL_HOST", "MAIL_PORT", "MAIL_ENCRYPTION", "MAIL_FROM_ADDRESS",
		"NOTIFICATIONS_ENABLED", "NOTIFICATIONS_ADMIN_EMAIL",
		"SESSION_STORE", "SESSION_SAME_SITE",
		"ADMIN_USER", "ADMIN_PASS",
		"WEBHOOK_NOTIFY_SOURCES", "WEBHOOK_RECONCILE_INTERVAL", "WEBHOOK_STALE_AFTER",
	}

	for _, envVar := range envVars {
		os.Unsetenv(envVar)
	}

	t.Cleanup(func() {
		for _, envVar := range envVars {
			os.Unsetenv(envVar)
		}
	})
}
