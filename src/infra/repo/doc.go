// Package repo contains the SQL implementations of the repository ports.
//
// This package implements the ports defined in src/core/ports on top of
// database/sql, so the same code runs against PostgreSQL (pgx stdlib) and
// SQLite (modernc). Statements are built with squirrel using the placeholder
// format of the database's dialect.
//
// Requirement rows are joined to machines on the machine name. The schema
// cascades renames to them, and Update replaces them inside the transaction
// that updates the machine columns.
package repo
