package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, DriverPostgres, cfg.Database.Driver)
	require.Equal(t, "machine_tools", cfg.Database.Name)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	require.Equal(t, "machine_tools.db", cfg.Database.SQLitePath)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "plain", cfg.Log.Format)
	require.Zero(t, cfg.Finder.DefaultLimit)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MACHINE_TOOLS_DB_DRIVER", "SQLite")
	t.Setenv("MACHINE_TOOLS_DB_SQLITE_PATH", ":memory:")
	t.Setenv("MACHINE_TOOLS_LOG_FORMAT", "json")
	t.Setenv("MACHINE_TOOLS_FINDER_DEFAULT_LIMIT", "50")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, ":memory:", cfg.Database.SQLitePath)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, 50, cfg.Finder.DefaultLimit)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "MACHINE_TOOLS_DB_DRIVER", "mysql"},
		{"negative limit", "MACHINE_TOOLS_FINDER_DEFAULT_LIMIT", "-1"},
		{"malformed port", "MACHINE_TOOLS_DB_PORT", "five"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "tools",
		Password: "p@ss",
		Name:     "machine_tools",
		SSLMode:  "disable",
	}
	require.Equal(t, "postgres://tools:p%40ss@db:5433/machine_tools?sslmode=disable", c.DSN())
}
