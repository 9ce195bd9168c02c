// Package config handles application configuration via environment variables.
// It uses kelseyhightower/envconfig for parsing and provides sensible defaults.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "MACHINE_TOOLS"

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
// Values are loaded from environment variables with the prefix "MACHINE_TOOLS".
// Example: MACHINE_TOOLS_DB_DRIVER=sqlite, MACHINE_TOOLS_LOG_LEVEL=debug
type Config struct {
	// Database configuration (loaded separately to flatten env vars)
	Database DatabaseConfig

	// Logging configuration
	Log LogConfig

	// Finder defaults
	Finder FinderConfig
}

// DatabaseConfig holds storage connection settings.
type DatabaseConfig struct {
	// Driver selects the storage engine: postgres or sqlite (default: postgres)
	Driver string `envconfig:"DB_DRIVER" default:"postgres"`

	// Host is the database host (default: localhost)
	Host string `envconfig:"DB_HOST" default:"localhost"`

	// Port is the database port (default: 5432)
	Port int `envconfig:"DB_PORT" default:"5432"`

	// User is the database user (default: postgres)
	User string `envconfig:"DB_USER" default:"postgres"`

	// Password is the database password (required in production)
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`

	// Name is the database name (default: machine_tools)
	Name string `envconfig:"DB_NAME" default:"machine_tools"`

	// SSLMode is the SSL mode for the connection (default: disable)
	SSLMode string `envconfig:"DB_SSLMODE" default:"disable"`

	// MaxOpenConns is the maximum number of open connections (default: 25)
	MaxOpenConns int `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`

	// MaxIdleConns is the maximum number of idle connections (default: 5)
	MaxIdleConns int `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`

	// ConnMaxLifetime is the maximum lifetime of a connection (default: 5m)
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`

	// SQLitePath is the database file used by the sqlite driver.
	// ":memory:" opens a private in-memory database.
	SQLitePath string `envconfig:"DB_SQLITE_PATH" default:"machine_tools.db"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: json, text, plain (default: plain)
	Format string `envconfig:"LOG_FORMAT" default:"plain"`
}

// FinderConfig holds search defaults.
type FinderConfig struct {
	// DefaultLimit caps every search unless overridden per call; 0 means no cap.
	DefaultLimit int `envconfig:"FINDER_DEFAULT_LIMIT" default:"0"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Validate checks settings that envconfig cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Finder.DefaultLimit < 0 {
		return fmt.Errorf("finder default limit must not be negative, got %d", c.Finder.DefaultLimit)
	}
	return nil
}

// Load reads configuration from environment variables.
// It returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	var cfg Config

	// Load each config section separately to flatten env var names
	// This allows MACHINE_TOOLS_DB_HOST instead of MACHINE_TOOLS_DATABASE_DB_HOST
	if err := envconfig.Process(Prefix, &cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}
	if err := envconfig.Process(Prefix, &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}
	if err := envconfig.Process(Prefix, &cfg.Finder); err != nil {
		return nil, fmt.Errorf("failed to load finder config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main.go during startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
