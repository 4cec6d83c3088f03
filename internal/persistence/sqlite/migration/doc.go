// Package migration applies versioned SQL schema files to a SQLite
// database. Migration files are named {version}_{description}.sql, where
// version is a zero-padded sequence number (001, 002, ...). Applied
// versions are recorded in the schema_migrations table so reruns are
// idempotent. Files may come from disk or from an embedded fs.FS.
package migration
