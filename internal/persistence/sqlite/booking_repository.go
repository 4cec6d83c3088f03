package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool *ConnectionPool
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, requester, group_name, location, event_type, date, start_min, end_min, outside_policy, created_at, updated_at`

// CreateBooking inserts a new booking row.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.pool.DB().ExecContext(ctx, query,
		booking.ID,
		booking.Requester,
		booking.Group,
		booking.Location,
		booking.EventType,
		booking.Date,
		booking.StartMin,
		booking.EndMin,
		booking.OutsidePolicy,
		booking.CreatedAt.Format(time.RFC3339),
		booking.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return MapError(err)
	}
	return nil
}

// GetBooking fetches a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	row := r.pool.DB().QueryRowContext(ctx, query, id)

	booking, err := scanBooking(row)
	if err != nil {
		return persistence.Booking{}, MapError(err)
	}
	return booking, nil
}

// ListBookings returns bookings matching the filter, ordered by date then
// start minute.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.Date != "" {
		conditions = append(conditions, "date = ?")
		args = append(args, filter.Date)
	} else {
		if filter.From != "" {
			conditions = append(conditions, "date >= ?")
			args = append(args, filter.From)
		}
		if filter.To != "" {
			conditions = append(conditions, "date <= ?")
			args = append(args, filter.To)
		}
	}
	if filter.Location != "" {
		conditions = append(conditions, "location = ?")
		args = append(args, filter.Location)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date, start_min"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ListBookingsOnDate returns every booking on the given day, ordered by
// start minute.
func (r *BookingRepository) ListBookingsOnDate(ctx context.Context, date string) ([]persistence.Booking, error) {
	return r.ListBookings(ctx, persistence.BookingFilter{Date: date})
}

// UpdateBooking rewrites a booking's mutable fields.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}

	booking.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE bookings
		SET requester = ?, group_name = ?, location = ?, event_type = ?,
		    date = ?, start_min = ?, end_min = ?, outside_policy = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.pool.DB().ExecContext(ctx, query,
		booking.Requester,
		booking.Group,
		booking.Location,
		booking.EventType,
		booking.Date,
		booking.StartMin,
		booking.EndMin,
		booking.OutsidePolicy,
		booking.UpdatedAt.Format(time.RFC3339),
		booking.ID,
	)
	if err != nil {
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteBooking removes a booking by ID.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		b         persistence.Booking
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&b.ID,
		&b.Requester,
		&b.Group,
		&b.Location,
		&b.EventType,
		&b.Date,
		&b.StartMin,
		&b.EndMin,
		&b.OutsidePolicy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Booking{}, err
	}

	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]persistence.Booking, error) {
	var bookings []persistence.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, MapError(err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return bookings, nil
}
