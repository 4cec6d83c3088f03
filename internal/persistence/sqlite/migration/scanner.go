package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"
)

// Migration file names look like 001_initial_schema.sql: a zero-padded
// version, an underscore, a snake_case description, and a .sql suffix.
var fileNamePattern = regexp.MustCompile(`^(\d{3,})_([a-z0-9_]+)\.sql$`)

// Scanner reads migration files from a filesystem, parses their metadata,
// and returns them sorted by version.
type Scanner struct {
	fsys fs.FS
}

// NewScanner reads migrations from the given filesystem, typically an
// embed.FS sub-tree.
func NewScanner(fsys fs.FS) *Scanner {
	return &Scanner{fsys: fsys}
}

// NewDirScanner reads migrations from a directory on disk.
func NewDirScanner(dir string) *Scanner {
	return &Scanner{fsys: os.DirFS(dir)}
}

// Scan returns all migrations in the filesystem root, sorted by version.
// Non-SQL files are skipped; a malformed .sql name or a repeated version
// is an error.
func (s *Scanner) Scan() ([]Migration, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, newError("", ".", "scan", err)
	}

	seen := make(map[string]string)
	var migrations []Migration

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m, err := s.parse(entry.Name())
		if err != nil {
			return nil, err
		}

		if prev, ok := seen[m.Version]; ok {
			return nil, newError(m.Version, entry.Name(), "scan",
				fmt.Errorf("%w: also declared by %s", ErrDuplicateVersion, prev))
		}
		seen[m.Version] = entry.Name()

		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// ValidateFileName reports whether a file name follows the migration
// naming convention.
func ValidateFileName(name string) error {
	if !fileNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q does not match {version}_{description}.sql", ErrInvalidMigrationFile, name)
	}
	return nil
}

func (s *Scanner) parse(name string) (Migration, error) {
	match := fileNamePattern.FindStringSubmatch(name)
	if match == nil {
		return Migration{}, newError("", name, "parse", ErrInvalidMigrationFile)
	}

	content, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return Migration{}, newError(match[1], name, "read", err)
	}

	if strings.TrimSpace(string(content)) == "" {
		return Migration{}, newError(match[1], name, "parse",
			fmt.Errorf("%w: file is empty", ErrInvalidMigrationFile))
	}

	sum := sha256.Sum256(content)

	return Migration{
		Version:     match[1],
		Description: strings.ReplaceAll(match[2], "_", " "),
		SQL:         string(content),
		FilePath:    name,
		Checksum:    hex.EncodeToString(sum[:]),
	}, nil
}
