package sqlite

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationsFS returns the embedded schema migration files, rooted so the
// .sql files sit at the top level.
func MigrationsFS() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		// The subdirectory is compiled in; failure here means a broken build.
		panic(err)
	}
	return sub
}
