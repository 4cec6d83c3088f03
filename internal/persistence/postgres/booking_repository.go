package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/room-booking/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using pgx.
type BookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, requester, group_name, location, event_type, date::text, start_min, end_min, outside_policy, created_at, updated_at`

// CreateBooking inserts a new booking row.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bookings (id, requester, group_name, location, event_type, date, start_min, end_min, outside_policy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		booking.ID,
		booking.Requester,
		booking.Group,
		booking.Location,
		booking.EventType,
		booking.Date,
		booking.StartMin,
		booking.EndMin,
		booking.OutsidePolicy,
		now,
		now,
	)
	return mapError(err)
}

// GetBooking fetches a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)

	booking, err := scanBooking(row)
	if err != nil {
		return persistence.Booking{}, mapError(err)
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
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Date != "" {
		conditions = append(conditions, "date = "+arg(filter.Date))
	} else {
		if filter.From != "" {
			conditions = append(conditions, "date >= "+arg(filter.From))
		}
		if filter.To != "" {
			conditions = append(conditions, "date <= "+arg(filter.To))
		}
	}
	if filter.Location != "" {
		conditions = append(conditions, "location = "+arg(filter.Location))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date, start_min"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapError(err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
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

	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET requester = $1, group_name = $2, location = $3, event_type = $4,
		    date = $5, start_min = $6, end_min = $7, outside_policy = $8, updated_at = $9
		WHERE id = $10`,
		booking.Requester,
		booking.Group,
		booking.Location,
		booking.EventType,
		booking.Date,
		booking.StartMin,
		booking.EndMin,
		booking.OutsidePolicy,
		time.Now().UTC(),
		booking.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteBooking removes a booking by ID.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (persistence.Booking, error) {
	var b persistence.Booking
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
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

// SQLSTATE classes for integrity violations.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
	notNullViolation    = "23502"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return persistence.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return persistence.ErrDuplicate
		case foreignKeyViolation:
			return persistence.ErrForeignKeyViolation
		case checkViolation, notNullViolation:
			return persistence.ErrConstraintViolation
		}
	}
	return err
}
