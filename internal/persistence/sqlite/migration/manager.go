package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// Manager orchestrates scanning and applying migrations.
type Manager struct {
	scanner  *Scanner
	executor *Executor
	logger   *slog.Logger

	// verifyChecksum makes Run fail when an already-applied migration
	// file no longer matches its recorded checksum.
	verifyChecksum bool
}

// NewManager wires a scanner and a database together. Passing a nil
// logger disables migration logging.
func NewManager(db *sql.DB, scanner *Scanner, logger *slog.Logger, verifyChecksum bool) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		scanner:        scanner,
		executor:       NewExecutor(db),
		logger:         logger,
		verifyChecksum: verifyChecksum,
	}
}

// Run applies every pending migration in version order. It is idempotent:
// already-applied versions are skipped (and optionally checksum-verified).
func (m *Manager) Run(ctx context.Context) error {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return err
	}

	migrations, err := m.scanner.Scan()
	if err != nil {
		return err
	}

	applied, err := m.executor.AppliedVersions(ctx)
	if err != nil {
		return err
	}

	pending := 0
	for _, mig := range migrations {
		if prev, ok := applied[mig.Version]; ok {
			if m.verifyChecksum {
				recorded, err := m.executor.AppliedChecksum(ctx, mig.Version)
				if err != nil {
					return err
				}
				if recorded != "" && recorded != mig.Checksum {
					return newError(mig.Version, mig.FilePath, "verify",
						fmt.Errorf("%w: applied at %s", ErrChecksumMismatch, prev.AppliedAt))
				}
			}
			continue
		}

		m.logger.InfoContext(ctx, "applying migration",
			slog.String("version", mig.Version),
			slog.String("description", mig.Description))

		if err := m.executor.Apply(ctx, mig); err != nil {
			m.logger.ErrorContext(ctx, "migration failed",
				slog.String("version", mig.Version),
				slog.String("error", err.Error()))
			return err
		}
		pending++
	}

	m.logger.InfoContext(ctx, "migrations complete",
		slog.Int("applied", pending),
		slog.Int("total", len(migrations)))
	return nil
}

// Status reports the current schema version and any pending migrations.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, err
	}

	migrations, err := m.scanner.Scan()
	if err != nil {
		return nil, err
	}

	appliedByVersion, err := m.executor.AppliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	status := &Status{}
	for _, mig := range migrations {
		if _, ok := appliedByVersion[mig.Version]; !ok {
			status.Pending = append(status.Pending, mig)
		}
	}
	status.PendingCount = len(status.Pending)

	for _, a := range appliedByVersion {
		status.Applied = append(status.Applied, a)
	}
	sort.Slice(status.Applied, func(i, j int) bool {
		return status.Applied[i].Version < status.Applied[j].Version
	})
	if n := len(status.Applied); n > 0 {
		status.CurrentVersion = status.Applied[n-1].Version
	}

	return status, nil
}
