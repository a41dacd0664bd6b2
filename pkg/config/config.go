// Package config provides environment-based configuration for the Bandly API.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the API server.
type Config struct {
	// Database configuration
	DatabaseDSN string `env:"DATABASE_URL" envDefault:"postgres://localhost:5432/bandly?sslmode=disable"`

	// Authentication
	JWTSecret string        `env:"JWT_SECRET"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	// Server configuration
	APIHost string `env:"API_HOST" envDefault:"0.0.0.0"`
	APIPort int    `env:"API_PORT" envDefault:"8080"`

	// AllowedOrigins lists origins permitted by the CORS layer
	// (the web frontend is served from a separate origin).
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Mailer configuration for invitation delivery.
	Mailer MailerConfig
}

// MailerConfig holds invitation email delivery configuration.
// Delivery is optional: with an empty API key the mailer is a no-op.
type MailerConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"`
	FromAddress  string `env:"MAIL_FROM" envDefault:"Bandly <invites@bandly.ch>"`
	InviteURL    string `env:"INVITE_URL" envDefault:"https://bandly.ch/bands/invites"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	return nil
}

// LoadWithDefaults loads configuration with defaults for development.
// It does not validate required fields, useful for testing.
func LoadWithDefaults() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return &Config{}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "development-secret-key-min-32-chars"
	}
	return cfg
}
