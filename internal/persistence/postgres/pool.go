// Package postgres is the PostgreSQL persistence backend for bookings,
// built on pgx connection pools. Accounts and sessions stay in SQLite;
// only the booking table is expected to live in a shared PostgreSQL
// instance.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool creates and validates a pgxpool connection pool from a libpq
// DSN or postgres:// URL.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the bookings table if it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			requester TEXT NOT NULL,
			group_name TEXT NOT NULL,
			location TEXT NOT NULL,
			event_type TEXT NOT NULL,
			date DATE NOT NULL,
			start_min INTEGER NOT NULL,
			end_min INTEGER NOT NULL,
			outside_policy BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			CHECK (start_min >= 0 AND end_min <= 1440 AND start_min < end_min)
		)`)
	if err != nil {
		return fmt.Errorf("ensure bookings schema: %w", err)
	}

	_, err = pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings (date, start_min)`)
	if err != nil {
		return fmt.Errorf("ensure bookings index: %w", err)
	}
	return nil
}
