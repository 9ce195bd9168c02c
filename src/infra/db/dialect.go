package db

import (
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"

	"machinetools/src/infra/config"
)

// Dialect captures the SQL differences between the supported engines.
type Dialect struct {
	Name        string
	Placeholder squirrel.PlaceholderFormat

	// Fold is a one-argument SQL function lowering text for
	// case-insensitive comparison.
	Fold string

	// Position is a two-argument SQL function returning the 1-based
	// position of the second argument in the first, or 0.
	Position string

	goose      goose.Dialect
	migrations string
}

var (
	// PostgresDialect targets PostgreSQL through pgx.
	PostgresDialect = Dialect{
		Name:        config.DriverPostgres,
		Placeholder: squirrel.Dollar,
		Fold:        "lower",
		Position:    "strpos",
		goose:       goose.DialectPostgres,
		migrations:  "migrations/postgres",
	}

	// SQLiteDialect targets modernc SQLite with the casefold function.
	SQLiteDialect = Dialect{
		Name:        config.DriverSQLite,
		Placeholder: squirrel.Question,
		Fold:        foldFunc,
		Position:    "instr",
		goose:       goose.DialectSQLite3,
		migrations:  "migrations/sqlite",
	}
)

// DialectFor returns the dialect of a configured driver.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverPostgres:
		return PostgresDialect, nil
	case config.DriverSQLite:
		return SQLiteDialect, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}
