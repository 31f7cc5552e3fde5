// Package config loads the process configuration of the prestamos API from the
// environment, optionally seeded from a .env file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

// MinJWTSecretBytes is the shortest signing secret accepted at startup.
const MinJWTSecretBytes = 32

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// Config is the full process configuration. It is loaded once in main and
// handed down explicitly; nothing reads the environment after startup.
type Config struct {
	Debug     bool     `env:"DEBUG" envDefault:"false"`
	LogLevel  LogLevel `env:"LOG_LEVEL" envDefault:"info"`
	LogFolder string   `env:"LOG_FOLDER"`

	Listen      string   `env:"HTTP_LISTEN"`
	Port        int      `env:"HTTP_PORT" envDefault:"8000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"30m"`

	OverdueCheckCron string `env:"OVERDUE_CHECK_CRON" envDefault:"@every 1m"`

	Database DatabaseConfig
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

// Load reads an optional .env file (or the files named by envFiles) and
// parses the environment into a validated Config.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads only the database settings. Maintenance commands use it
// so they can run without the token secret.
func LoadDatabase(envFiles ...string) (*DatabaseConfig, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	cfg := &DatabaseConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(envFiles ...string) error {
	if len(envFiles) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	secret := strings.TrimSpace(c.JWTSecret)
	if secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(secret) < MinJWTSecretBytes {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretBytes)
	}
	c.JWTSecret = secret
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Port)
	}
	switch c.LogLevel {
	case Debug, Info, Notice, Warn, Error:
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}
	return c.Database.ValidateConfig()
}

// GetLogLevel returns the effective level; DEBUG=true always wins.
func (c *Config) GetLogLevel() LogLevel {
	if c.Debug {
		return Debug
	}
	return c.LogLevel
}
