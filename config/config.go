package config

import (
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App           AppConfig           `envPrefix:"APP_"`
	Server        ServerConfig        `envPrefix:"SERVER_"`
	Log           LogConfig           `envPrefix:"LOG_"`
	Database      DatabaseConfig      `envPrefix:"DATABASE_"`
	Mail          MailConfig          `envPrefix:"MAIL_"`
	Notifications NotificationsConfig `envPrefix:"NOTIFICATIONS_"`
	Session       SessionConfig       `envPrefix:"SESSION_"`
	Admin         AdminConfig         `envPrefix:"ADMIN_"`
	Claims        ClaimsConfig        `envPrefix:"CLAIMS_"`
	Webhook       WebhookConfig       `envPrefix:"WEBHOOK_"`
}

type AppConfig struct {
	Name       string `env:"NAME" envDefault:"AngryMail"`
	Version    string `env:"VERSION" envDefault:"1.0.0"`
	URL        string `env:"URL" envDefault:"http://localhost:3000"`
	SiteDomain string `env:"SITE_DOMAIN" envDefault:"localhost:3000"`
}

type ServerConfig struct {
	Port           string   `env:"PORT" envDefault:"3000"`
	Host           string   `env:"HOST" envDefault:"0.0.0.0"`
	BodyLimit      string   `env:"BODY_LIMIT" envDefault:"10M"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver          string        `env:"DRIVER" envDefault:"sqlite"`
	DSN             string        `env:"DSN" envDefault:"angrymail.db"`
	AutoMigrate     bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

type MailConfig struct {
	Host         string        `env:"HOST"`
	Port         int           `env:"PORT" envDefault:"587"`
	Username     string        `env:"USERNAME"`
	Password     string        `env:"PASSWORD"`
	Encryption   string        `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress  string        `env:"FROM_ADDRESS"`
	FromName     string        `env:"FROM_NAME" envDefault:"AngryMail"`
	TemplatesDir string        `env:"TEMPLATES_DIR"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type NotificationsConfig struct {
	Enabled    bool   `env:"ENABLED" envDefault:"false"`
	AdminEmail string `env:"ADMIN_EMAIL"`
}

type SessionConfig struct {
	Enabled  bool          `env:"ENABLED" envDefault:"true"`
	Store    string        `env:"STORE" envDefault:"memory"`
	Name     string        `env:"NAME" envDefault:"angrymail_session"`
	MaxAge   time.Duration `env:"MAX_AGE" envDefault:"24h"`
	Path     string        `env:"PATH" envDefault:"/"`
	Domain   string        `env:"DOMAIN"`
	Secure   bool          `env:"SECURE" envDefault:"false"`
	HttpOnly bool          `env:"HTTP_ONLY" envDefault:"true"`
	SameSite string        `env:"SAME_SITE" envDefault:"lax"`
}

type AdminConfig struct {
	Username   string `env:"USER"`
	Password   string `env:"PASS"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"12"`
}

type ClaimsConfig struct {
	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE" envDefault:"50"`
	MaxPageSize     int `env:"MAX_PAGE_SIZE" envDefault:"200"`
}

type WebhookConfig struct {
	NotifySources     []string      `env:"NOTIFY_SOURCES" envSeparator:"," envDefault:"moltbook"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5m"`
	StaleAfter        time.Duration `env:"STALE_AFTER" envDefault:"15m"`
	DefaultPageSize   int           `env:"DEFAULT_PAGE_SIZE" envDefault:"50"`
	MaxPageSize       int           `env:"MAX_PAGE_SIZE" envDefault:"200"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	if c, ok := cfg.(*Config); ok {
		return Validate(c)
	}
	return nil
}

func Validate(cfg *Config) error {
	if err := validateDatabaseConfig(&cfg.Database); err != nil {
		return err
	}
	if err := validateMailConfig(&cfg.Mail); err != nil {
		return err
	}
	if err := validateSessionConfig(&cfg.Session); err != nil {
		return err
	}
	if err := validatePageSizes("claims", cfg.Claims.DefaultPageSize, cfg.Claims.MaxPageSize); err != nil {
		return err
	}
	if err := validatePageSizes("webhook", cfg.Webhook.DefaultPageSize, cfg.Webhook.MaxPageSize); err != nil {
		return err
	}
	if cfg.Webhook.ReconcileInterval > 0 && cfg.Webhook.StaleAfter <= 0 {
		return fmt.Errorf("webhook stale-after must be positive when reconciliation is enabled")
	}
	if cfg.Admin.BcryptCost < 4 || cfg.Admin.BcryptCost > 31 {
		return fmt.Errorf("admin bcrypt cost must be between 4 and 31")
	}
	return nil
}

func validateDatabaseConfig(cfg *DatabaseConfig) error {
	switch cfg.Driver {
	case "sqlite", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql)", cfg.Driver)
	}
	if cfg.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	return nil
}

func validateMailConfig(cfg *MailConfig) error {
	if !slices.Contains([]string{"", "tls", "starttls", "ssl", "none"}, cfg.Encryption) {
		return fmt.Errorf("mail encryption must be: tls, starttls, ssl, or none")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("mail port out of range: %d", cfg.Port)
	}
	return nil
}

func validateSessionConfig(cfg *SessionConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Store != "memory" && cfg.Store != "database" {
		return fmt.Errorf("session store must be: memory or database")
	}
	if !slices.Contains([]string{"strict", "lax", "none"}, cfg.SameSite) {
		return fmt.Errorf("session same-site must be: strict, lax, or none")
	}
	return nil
}

func validatePageSizes(section string, def, max int) error {
	if def < 1 {
		return fmt.Errorf("%s default page size must be at least 1", section)
	}
	if max < def {
		return fmt.Errorf("%s max page size cannot be smaller than the default page size", section)
	}
	return nil
}
