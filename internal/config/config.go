// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by the storefront, the admin and the CLI.
type Config struct {
	StoreDriver  string `env:"STORE_DRIVER" envDefault:"json"`    // memory, json, sqlite or postgres
	StoreDSN     string `env:"STORE_DSN" envDefault:".store"`      // directory, file path or postgres URL
	SeedDefaults bool   `env:"SEED_DEFAULTS" envDefault:"false"` // load the default catalog into an empty store

	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`
	AdminAddr  string `env:"ADMIN_ADDR" envDefault:":8081"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`

	WhatsAppPhone    string        `env:"WHATSAPP_PHONE"`
	StoreName        string        `env:"STORE_NAME" envDefault:"Sport Store"`
	DashboardTimeout time.Duration `env:"DASHBOARD_TIMEOUT" envDefault:"3s"`

	S3Bucket      string `env:"S3_BUCKET"`
	S3Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Prefix      string `env:"S3_PREFIX" envDefault:"uploads"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// MediaEnabled reports whether image uploads are configured.
func (c Config) MediaEnabled() bool {
	return c.S3Bucket != ""
}

// Level maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}
