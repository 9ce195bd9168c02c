// Package db provides database connection management and schema migrations.
//
// This package is responsible for:
//   - PostgreSQL connection pool initialization (pgx), exposed as *sql.DB
//   - SQLite databases (modernc.org/sqlite) for local catalogs and tests
//   - Per-engine SQL dialect details used by the repositories
//   - Embedded goose migrations for both engines
//   - Classifying constraint violations
//
// Example usage:
//
//	database, err := db.Open(ctx, cfg.Database, log)
//	if err != nil {
//	    return err
//	}
//	defer database.Close()
//
//	if err := database.Migrate(ctx); err != nil {
//	    return err
//	}
package db
