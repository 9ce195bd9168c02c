package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"modernc.org/sqlite"

	"machinetools/src/infra/config"
	"machinetools/src/infra/logger"
)

// foldFunc is a SQL function lowering text with Unicode case rules. The
// builtin lower() only folds ASCII, which misses Cyrillic machine names.
const foldFunc = "casefold"

var registerFold = sync.OnceValue(func() error {
	return sqlite.RegisterDeterministicScalarFunction(foldFunc, 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case nil:
				return nil, nil
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			default:
				return v, nil
			}
		},
	)
})

// NewSQLite opens the SQLite database at path. ":memory:" opens a private
// in-memory database that lives as long as the returned handle.
func NewSQLite(ctx context.Context, path string, log *slog.Logger) (*sql.DB, error) {
	if err := registerFold(); err != nil {
		return nil, fmt.Errorf("failed to register %s function: %w", foldFunc, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Pragmas and :memory: databases are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	logger.Info(log, "database connection established",
		"driver", config.DriverSQLite,
		"path", path,
	)
	return db, nil
}
