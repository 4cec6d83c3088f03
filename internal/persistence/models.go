package persistence

import "time"

// Booking is a stored reservation row. Date is an ISO-8601 calendar day
// (YYYY-MM-DD) and the interval is kept as minutes since midnight so that
// overlap queries stay integer comparisons.
type Booking struct {
	ID        string
	Requester string
	Group     string
	Location  string
	EventType string
	Date      string
	StartMin  int
	EndMin    int
	// OutsidePolicy marks bookings that were accepted through a
	// privileged override rather than inside a regular window.
	OutsidePolicy bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// User is a stored account row. PasswordHash carries the encoded argon2id
// digest, never the plain password.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	// Privileged users may book outside the regular windows on days
	// where the policy allows overrides.
	Privileged bool
	Disabled   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Session is a stored login session. Token is the opaque value handed to
// the client; ExpiresAt and RevokedAt gate its validity.
type Session struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}
