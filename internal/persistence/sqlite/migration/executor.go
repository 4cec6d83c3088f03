package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const versionTableDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	checksum TEXT NOT NULL,
	applied_at TEXT NOT NULL,
	execution_time_ms INTEGER NOT NULL
)`

// Executor applies migrations against a database and records them in the
// schema_migrations table.
type Executor struct {
	db *sql.DB
}

// NewExecutor creates an executor bound to the given database.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// InitializeVersionTable creates the schema_migrations table if needed.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, versionTableDDL); err != nil {
		return newError("", "schema_migrations", "initialize", err)
	}
	return nil
}

// Apply runs a single migration and its bookkeeping row in one
// transaction, so a failed migration leaves no trace.
func (e *Executor) Apply(ctx context.Context, m Migration) error {
	start := time.Now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(m.Version, m.FilePath, "begin", err)
	}

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		tx.Rollback()
		return newError(m.Version, m.FilePath, "execute",
			fmt.Errorf("%w: %v", ErrMigrationFailed, err))
	}

	elapsed := time.Since(start).Milliseconds()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, checksum, applied_at, execution_time_ms) VALUES (?, ?, ?, ?)`,
		m.Version, m.Checksum, time.Now().UTC().Format(time.RFC3339), elapsed,
	); err != nil {
		tx.Rollback()
		return newError(m.Version, m.FilePath, "record", err)
	}

	if err := tx.Commit(); err != nil {
		return newError(m.Version, m.FilePath, "commit", err)
	}
	return nil
}

// AppliedVersions returns the applied migrations keyed by version.
func (e *Executor) AppliedVersions(ctx context.Context) (map[string]AppliedMigration, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT version, checksum, applied_at, execution_time_ms FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, newError("", "schema_migrations", "query", err)
	}
	defer rows.Close()

	applied := make(map[string]AppliedMigration)
	for rows.Next() {
		var (
			m        AppliedMigration
			checksum string
			at       string
		)
		if err := rows.Scan(&m.Version, &checksum, &at, &m.ExecutionTimeMs); err != nil {
			return nil, newError("", "schema_migrations", "scan", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, at); parseErr == nil {
			m.AppliedAt = t
		}
		applied[m.Version] = m
	}
	if err := rows.Err(); err != nil {
		return nil, newError("", "schema_migrations", "iterate", err)
	}
	return applied, nil
}

// AppliedChecksum returns the recorded checksum for a version, or the
// empty string when the version has not been applied.
func (e *Executor) AppliedChecksum(ctx context.Context, version string) (string, error) {
	var checksum string
	err := e.db.QueryRowContext(ctx,
		`SELECT checksum FROM schema_migrations WHERE version = ?`, version).Scan(&checksum)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", newError(version, "schema_migrations", "query", err)
	}
	return checksum, nil
}
