package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID      string
	DisplayName string
	Privileged  bool
}

// BookingInput captures caller provided booking fields. Date is an
// ISO-8601 day and Start/End are HH:MM clock strings.
type BookingInput struct {
	Requester string
	Group     string
	Location  string
	EventType string
	Date      string
	Start     string
	End       string
}

// Booking represents a persisted reservation.
type Booking struct {
	ID            string
	Requester     string
	Group         string
	Location      string
	EventType     string
	Date          string
	Start         string
	End           string
	OutsidePolicy bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ConflictWarning describes an existing booking that overlaps a candidate
// interval on the same day.
type ConflictWarning struct {
	BookingID string
	Requester string
	Location  string
	Start     string
	End       string
}

// ConflictDecision records what the caller wants done when the candidate
// overlaps existing bookings.
type ConflictDecision string

const (
	// ConflictUndecided suspends the request so the caller can be asked
	// to confirm.
	ConflictUndecided ConflictDecision = ""
	// ConflictConfirm proceeds despite overlaps.
	ConflictConfirm ConflictDecision = "confirm"
	// ConflictDecline abandons the request when overlaps exist.
	ConflictDecline ConflictDecision = "decline"
)

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
	Decision  ConflictDecision
}

// UpdateBookingParams wraps the data required to update an existing booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID string
	Input     BookingInput
	Decision  ConflictDecision
}

// ListBookingsParams wraps booking listing filters. UpcomingOnly keeps
// only bookings that have not finished yet relative to the service clock.
type ListBookingsParams struct {
	Principal    Principal
	Date         string
	Location     string
	From         string
	To           string
	UpcomingOnly bool
}

// CalendarEntry is one event in the calendar feed. Start and End are
// RFC3339-style local timestamps without zone (what calendar widgets
// expect for floating events).
type CalendarEntry struct {
	ID    string
	Title string
	Start string
	End   string
}

// User represents an account as exposed to handlers.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Privileged  bool
	Disabled    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an issued login session.
type Session struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// AuthenticateParams carries login credentials.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult bundles the authenticated user and the new session.
type AuthenticateResult struct {
	User    User
	Session Session
}

// CreateUserParams wraps the data required to register an account.
type CreateUserParams struct {
	Principal   Principal
	Email       string
	DisplayName string
	Password    string
	Privileged  bool
}

// UpdateUserParams wraps the mutable account fields.
type UpdateUserParams struct {
	Principal  Principal
	UserID     string
	Privileged *bool
	Disabled   *bool
}
