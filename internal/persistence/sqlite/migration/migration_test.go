package migration

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
)

func testFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{name: "valid", file: "001_initial_schema.sql", wantErr: false},
		{name: "valid longer version", file: "0042_add_index.sql", wantErr: false},
		{name: "missing version", file: "initial_schema.sql", wantErr: true},
		{name: "short version", file: "01_initial.sql", wantErr: true},
		{name: "uppercase description", file: "001_Initial.sql", wantErr: true},
		{name: "wrong extension", file: "001_initial.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileName(tt.file)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFileName(%q) error = %v, wantErr %v", tt.file, err, tt.wantErr)
			}
		})
	}
}

func TestScannerOrdersByVersion(t *testing.T) {
	scanner := NewScanner(testFS(map[string]string{
		"002_second.sql": "CREATE TABLE b (id TEXT);",
		"001_first.sql":  "CREATE TABLE a (id TEXT);",
		"003_third.sql":  "CREATE TABLE c (id TEXT);",
		"README.md":      "not a migration",
	}))

	migrations, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("Scan() returned %d migrations, want 3", len(migrations))
	}
	for i, want := range []string{"001", "002", "003"} {
		if migrations[i].Version != want {
			t.Errorf("migrations[%d].Version = %q, want %q", i, migrations[i].Version, want)
		}
	}
	if migrations[0].Description != "first" {
		t.Errorf("Description = %q, want %q", migrations[0].Description, "first")
	}
	if migrations[0].Checksum == "" {
		t.Error("Checksum is empty")
	}
}

func TestScannerRejectsDuplicateVersions(t *testing.T) {
	scanner := NewScanner(testFS(map[string]string{
		"001_first.sql":  "CREATE TABLE a (id TEXT);",
		"001_second.sql": "CREATE TABLE b (id TEXT);",
	}))

	if _, err := scanner.Scan(); !errors.Is(err, ErrDuplicateVersion) {
		t.Errorf("Scan() error = %v, want ErrDuplicateVersion", err)
	}
}

func TestScannerRejectsEmptyFile(t *testing.T) {
	scanner := NewScanner(testFS(map[string]string{
		"001_empty.sql": "   \n",
	}))

	if _, err := scanner.Scan(); !errors.Is(err, ErrInvalidMigrationFile) {
		t.Errorf("Scan() error = %v, want ErrInvalidMigrationFile", err)
	}
}

func TestManagerRunIsIdempotent(t *testing.T) {
	db, err := NewConnectionManager(InMemoryTestSQLiteConfig()).GetConnection()
	if err != nil {
		t.Fatalf("GetConnection() error = %v", err)
	}
	defer db.Close()

	scanner := NewScanner(testFS(map[string]string{
		"001_accounts.sql": "CREATE TABLE accounts (id TEXT PRIMARY KEY);",
		"002_rooms.sql":    "CREATE TABLE rooms (id TEXT PRIMARY KEY);",
	}))

	mgr := NewManager(db, scanner, nil, true)
	ctx := context.Background()

	if err := mgr.Run(ctx); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if err := mgr.Run(ctx); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	status, err := mgr.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.CurrentVersion != "002" {
		t.Errorf("CurrentVersion = %q, want %q", status.CurrentVersion, "002")
	}
	if status.PendingCount != 0 {
		t.Errorf("PendingCount = %d, want 0", status.PendingCount)
	}

	// Both tables must exist after the run.
	for _, table := range []string{"accounts", "rooms"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestManagerFailedMigrationLeavesNoRecord(t *testing.T) {
	db, err := NewConnectionManager(InMemoryTestSQLiteConfig()).GetConnection()
	if err != nil {
		t.Fatalf("GetConnection() error = %v", err)
	}
	defer db.Close()

	scanner := NewScanner(testFS(map[string]string{
		"001_broken.sql": "CREATE BROKEN SYNTAX;",
	}))

	mgr := NewManager(db, scanner, nil, false)
	if err := mgr.Run(context.Background()); !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("Run() error = %v, want ErrMigrationFailed", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 0 {
		t.Errorf("schema_migrations has %d rows after failed migration, want 0", count)
	}
}

func TestManagerDetectsChecksumMismatch(t *testing.T) {
	db, err := NewConnectionManager(InMemoryTestSQLiteConfig()).GetConnection()
	if err != nil {
		t.Fatalf("GetConnection() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	original := testFS(map[string]string{
		"001_accounts.sql": "CREATE TABLE accounts (id TEXT PRIMARY KEY);",
	})
	if err := NewManager(db, NewScanner(original), nil, true).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	edited := testFS(map[string]string{
		"001_accounts.sql": "CREATE TABLE accounts (id TEXT PRIMARY KEY, name TEXT);",
	})
	if err := NewManager(db, NewScanner(edited), nil, true).Run(ctx); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Run() error = %v, want ErrChecksumMismatch", err)
	}
}
