package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	pool *ConnectionPool
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateSession inserts a new session row.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" || session.Token == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO sessions (id, user_id, token, created_at, expires_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var revokedAt any
	if session.RevokedAt != nil {
		revokedAt = session.RevokedAt.Format(time.RFC3339)
	}

	_, err := r.pool.DB().ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.CreatedAt.Format(time.RFC3339),
		session.ExpiresAt.Format(time.RFC3339),
		revokedAt,
	)
	if err != nil {
		return MapError(err)
	}
	return nil
}

// GetSessionByToken fetches a session by its opaque token.
func (r *SessionRepository) GetSessionByToken(ctx context.Context, token string) (persistence.Session, error) {
	query := `
		SELECT id, user_id, token, created_at, expires_at, revoked_at
		FROM sessions WHERE token = ?
	`

	var (
		s         persistence.Session
		createdAt string
		expiresAt string
		revokedAt sql.NullString
	)
	err := r.pool.DB().QueryRowContext(ctx, query, token).Scan(
		&s.ID,
		&s.UserID,
		&s.Token,
		&createdAt,
		&expiresAt,
		&revokedAt,
	)
	if err != nil {
		return persistence.Session{}, MapError(err)
	}

	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	if revokedAt.Valid {
		if t, parseErr := time.Parse(time.RFC3339, revokedAt.String); parseErr == nil {
			s.RevokedAt = &t
		}
	}
	return s, nil
}

// RevokeSession marks the session revoked now. Revoking an already-revoked
// session keeps the original revocation time.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string) error {
	query := `
		UPDATE sessions SET revoked_at = ?
		WHERE token = ? AND revoked_at IS NULL
	`

	result, err := r.pool.DB().ExecContext(ctx, query,
		time.Now().UTC().Format(time.RFC3339), token)
	if err != nil {
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		// Distinguish "unknown token" from "already revoked".
		var exists int
		err := r.pool.DB().QueryRowContext(ctx,
			`SELECT 1 FROM sessions WHERE token = ?`, token).Scan(&exists)
		if err != nil {
			return MapError(err)
		}
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before the cutoff,
// given as an RFC3339 timestamp.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, cutoff string) (int, error) {
	result, err := r.pool.DB().ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, cutoff)
	if err != nil {
		return 0, MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, MapError(err)
	}
	return int(affected), nil
}
