package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"machinetools/src/infra/config"
	"machinetools/src/infra/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Database is an open store together with the dialect its SQL must use.
type Database struct {
	DB      *sql.DB
	Dialect Dialect

	log     *slog.Logger
	closers []func() error
}

// Open connects to the configured engine.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*Database, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, log)
	default:
		pg, err := NewPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		sqlDB := stdlib.OpenDBFromPool(pg.Pool)
		return &Database{
			DB:      sqlDB,
			Dialect: dialect,
			log:     log,
			closers: []func() error{
				sqlDB.Close,
				func() error { pg.Close(); return nil },
			},
		}, nil
	}
}

// OpenSQLite opens a SQLite database at path.
func OpenSQLite(ctx context.Context, path string, log *slog.Logger) (*Database, error) {
	sqlDB, err := NewSQLite(ctx, path, log)
	if err != nil {
		return nil, err
	}
	return &Database{
		DB:      sqlDB,
		Dialect: SQLiteDialect,
		log:     log,
		closers: []func() error{sqlDB.Close},
	}, nil
}

// Close releases every underlying handle.
func (d *Database) Close() error {
	var errs []error
	for _, c := range d.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Health checks if the database is reachable.
func (d *Database) Health(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Migrate applies every pending migration of the database's dialect.
func (d *Database) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, d.Dialect.migrations)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(d.Dialect.goose, d.DB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info(d.log, "migration applied",
			"version", r.Source.Version,
			"duration", r.Duration,
		)
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(sqliteErr.Error(), "FOREIGN KEY constraint failed")
		}
	}
	return false
}
