package testutils

import (
	"time"

	"github.com/tech-arch1tect/angrymail/config"
	"golang.org/x/crypto/bcrypt"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:       "AngryMail Test",
			Version:    "test",
			URL:        "http://localhost:3000",
			SiteDomain: "angrymail.test",
		},
		Server: config.ServerConfig{
			Host:      "localhost",
			Port:      "3000",
			BodyLimit: "1M",
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "json",
			Output: "stdout",
		},
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			DSN:          ":memory:",
			AutoMigrate:  true,
			MaxOpenConns: 1,
		},
		Mail: config.MailConfig{
			Host:        "localhost",
			Port:        2525,
			Encryption:  "none",
			FromAddress: "noreply@angrymail.test",
			FromName:    "AngryMail",
			Timeout:     time.Second,
		},
		Notifications: config.NotificationsConfig{
			Enabled:    true,
			AdminEmail: "admin@angrymail.test",
		},
		Session: config.SessionConfig{
			Enabled:  true,
			Store:    "memory",
			Name:     "angrymail_session",
			MaxAge:   time.Hour,
			Path:     "/",
			HttpOnly: true,
			SameSite: "lax",
		},
		Admin: config.AdminConfig{
			Username:   "admin",
			Password:   "correct-horse",
			BcryptCost: bcrypt.MinCost,
		},
		Claims: config.ClaimsConfig{
			DefaultPageSize: 50,
			MaxPageSize:     200,
		},
		Webhook: config.WebhookConfig{
			NotifySources:     []string{"moltbook"},
			ReconcileInterval: 0,
			StaleAfter:        15 * time.Minute,
			DefaultPageSize:   50,
			MaxPageSize:       200,
		},
	}
}

var TestPayloads = struct {
	MoltbookAgentClaimed string
	MoltbookNoEvent      string
	Generic              string
}{
	MoltbookAgentClaimed: `{"event":"agent.claimed","data":{"agent":"grumpy-bot","claim_url":"https://moltbook.example/claim/abc"}}`,
	MoltbookNoEvent:      `{"data":{"agent":"grumpy-bot"}}`,
	Generic:              `{"ping":true,"items":[1,2,3]}`,
}
