// Package sqlite is the SQLite persistence backend. It owns the embedded
// schema migrations and real-database implementations of the repository
// contracts in the persistence package.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

// Store bundles the connection pool with the repository implementations.
type Store struct {
	pool *ConnectionPool

	Bookings *BookingRepository
	Users    *UserRepository
	Sessions *SessionRepository
}

// Open opens the database, applies the embedded migrations, and returns a
// ready-to-use store.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	manager := migration.NewManager(pool.DB(), migration.NewScanner(MigrationsFS()), logger, true)
	if err := manager.Run(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	return &Store{
		pool:     pool,
		Bookings: NewBookingRepository(pool),
		Users:    NewUserRepository(pool),
		Sessions: NewSessionRepository(pool),
	}, nil
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *ConnectionPool {
	return s.pool
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
