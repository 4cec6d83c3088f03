// Package persistence defines the storage models and repository contracts
// shared by the concrete SQLite and PostgreSQL backends.
package persistence

import "context"

// BookingFilter narrows ListBookings results. Zero-valued fields are
// ignored. Date selects a single calendar day; From/To select an
// inclusive day range and are only consulted when Date is empty.
type BookingFilter struct {
	Date     string
	Location string
	From     string
	To       string
}

// BookingRepository persists reservations.
type BookingRepository interface {
	// CreateBooking inserts a new booking. Returns ErrDuplicate when the
	// ID is already taken and ErrConstraintViolation when the row breaks
	// a schema constraint.
	CreateBooking(ctx context.Context, booking Booking) error

	// GetBooking fetches a booking by ID. Returns ErrNotFound when no
	// such booking exists.
	GetBooking(ctx context.Context, id string) (Booking, error)

	// ListBookings returns bookings matching the filter, ordered by
	// date then start minute.
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)

	// ListBookingsOnDate returns every booking on the given day, ordered
	// by start minute. This is the conflict-detection read path.
	ListBookingsOnDate(ctx context.Context, date string) ([]Booking, error)

	// UpdateBooking rewrites a booking's mutable fields keyed by ID.
	// Returns ErrNotFound when no such booking exists.
	UpdateBooking(ctx context.Context, booking Booking) error

	// DeleteBooking removes a booking. Returns ErrNotFound when no such
	// booking exists.
	DeleteBooking(ctx context.Context, id string) error
}

// UserRepository persists accounts.
type UserRepository interface {
	// CreateUser inserts a new user. Returns ErrDuplicate when the email
	// is already registered.
	CreateUser(ctx context.Context, user User) error

	// GetUser fetches a user by ID. Returns ErrNotFound when no such
	// user exists.
	GetUser(ctx context.Context, id string) (User, error)

	// GetUserByEmail fetches a user by email. Returns ErrNotFound when
	// no such user exists.
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// ListUsers returns every user ordered by email then ID.
	ListUsers(ctx context.Context) ([]User, error)

	// UpdateUser rewrites a user's mutable fields keyed by ID. Returns
	// ErrNotFound when no such user exists.
	UpdateUser(ctx context.Context, user User) error

	// DeleteUser removes a user and, via the schema cascade, their
	// sessions. Returns ErrNotFound when no such user exists.
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository persists login sessions.
type SessionRepository interface {
	// CreateSession inserts a new session. Returns ErrDuplicate when the
	// token is already in use.
	CreateSession(ctx context.Context, session Session) error

	// GetSessionByToken fetches a session by its opaque token. Returns
	// ErrNotFound when no such session exists.
	GetSessionByToken(ctx context.Context, token string) (Session, error)

	// RevokeSession marks a session revoked at the given token. Returns
	// ErrNotFound when no such session exists.
	RevokeSession(ctx context.Context, token string) error

	// DeleteExpiredSessions removes sessions whose expiry is before the
	// cutoff, returning how many rows were removed.
	DeleteExpiredSessions(ctx context.Context, cutoff string) (int, error)
}
