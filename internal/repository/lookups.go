// Package repository provides persistence implementations for the lookup
// audit trail.
package repository

import (
	"context"
	"database/sql"

	"hubgaranzie/internal/models"
)

// PostgresLookupRepository records lookup outcomes in a PostgreSQL database.
type PostgresLookupRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresLookupRepository creates a new PostgresLookupRepository with the
// given database connection. db must be a valid *sql.DB connected to a
// PostgreSQL instance.
func NewPostgresLookupRepository(db *sql.DB) *PostgresLookupRepository {
	return &PostgresLookupRepository{DB: db}
}

// RecordLookup inserts one audit row describing a lookup outcome.
// Returns any error encountered while executing the insertion.
func (r *PostgresLookupRepository) RecordLookup(ctx context.Context, rec models.LookupRecord) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO lookups (id, telaio, success, error_kind, duration_ms)
         VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.Telaio, rec.Success, rec.ErrorKind, rec.DurationMs,
	)
	return err
}

// CountRecent returns the number of lookups recorded for the given chassis
// id in the audit window. Used for diagnostics only.
func (r *PostgresLookupRepository) CountRecent(ctx context.Context, telaio string) (int64, error) {
	var count int64
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM lookups WHERE telaio = $1`,
		telaio,
	).Scan(&count)
	return count, err
}
