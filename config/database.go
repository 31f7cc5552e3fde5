package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// DatabaseType represents the type of database
type DatabaseType string

const (
	DatabaseTypeSQLite     DatabaseType = "sqlite"
	DatabaseTypePostgreSQL DatabaseType = "postgres"
	DatabaseTypeMySQL      DatabaseType = "mysql"
)

// DatabaseConfig holds database configuration. Host, port, user, password and
// name are shared by the server-based engines; Path is used by SQLite only.
type DatabaseConfig struct {
	Type     DatabaseType `env:"DB_TYPE" envDefault:"sqlite"`
	Path     string       `env:"DB_PATH" envDefault:"db/prestamos.db"`
	Host     string       `env:"DB_HOST" envDefault:"localhost"`
	Port     int          `env:"DB_PORT"`
	Name     string       `env:"DB_NAME" envDefault:"prestamos"`
	User     string       `env:"DB_USER"`
	Password string       `env:"DB_PASSWORD"`
	SSLMode  string       `env:"DB_SSLMODE" envDefault:"disable"`
	TimeZone string       `env:"DB_TIMEZONE" envDefault:"UTC"`
}

// GetDSN returns the data source name for the database
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case DatabaseTypePostgreSQL:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
			c.Host,
			c.User,
			c.Password,
			c.Name,
			c.GetPort(),
			c.SSLMode,
			c.TimeZone,
		)
	case DatabaseTypeMySQL:
		loc := url.QueryEscape(c.TimeZone)
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=%s",
			c.User,
			c.Password,
			net.JoinHostPort(c.Host, strconv.Itoa(c.GetPort())),
			c.Name,
			loc,
		)
	default:
		return c.Path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	}
}

// GetPort returns the configured port or the engine's well-known default.
func (c *DatabaseConfig) GetPort() int {
	if c.Port > 0 {
		return c.Port
	}
	switch c.Type {
	case DatabaseTypePostgreSQL:
		return 5432
	case DatabaseTypeMySQL:
		return 3306
	default:
		return 0
	}
}

// ValidateConfig validates the database configuration
func (c *DatabaseConfig) ValidateConfig() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.Path == "" {
			return fmt.Errorf("SQLite path cannot be empty")
		}
	case DatabaseTypePostgreSQL, DatabaseTypeMySQL:
		if c.Host == "" {
			return fmt.Errorf("%s host cannot be empty", c.Type)
		}
		if c.Name == "" {
			return fmt.Errorf("%s database name cannot be empty", c.Type)
		}
		if c.User == "" {
			return fmt.Errorf("%s username cannot be empty", c.Type)
		}
		if c.Port < 0 || c.Port > 65535 {
			return fmt.Errorf("%s port must be between 1 and 65535", c.Type)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// IsSQLite returns true if the database type is SQLite
func (c *DatabaseConfig) IsSQLite() bool {
	return c.Type == DatabaseTypeSQLite
}

// EnsureDirectoryExists ensures the directory for SQLite database exists
func (c *DatabaseConfig) EnsureDirectoryExists() error {
	if c.IsSQLite() {
		dir := filepath.Dir(c.Path)
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
