package migration

import "time"

// Migration is a single schema change parsed from a migration file.
type Migration struct {
	Version     string
	Description string
	SQL         string
	FilePath    string
	Checksum    string
}

// AppliedMigration is a row from the schema_migrations tracking table.
type AppliedMigration struct {
	Version         string
	AppliedAt       time.Time
	ExecutionTimeMs int64
}

// Status summarizes the database's migration state.
type Status struct {
	CurrentVersion string
	PendingCount   int
	Applied        []AppliedMigration
	Pending        []Migration
}
