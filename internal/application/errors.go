package application

import (
	"errors"
	"fmt"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique resource is created twice.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when a disabled account attempts to log in.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token has been revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrBookingDeclined is returned when the caller abandons a booking
	// after seeing its conflicts.
	ErrBookingDeclined = errors.New("application: booking declined on conflict")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// PolicyViolationError is returned when a candidate interval falls outside
// the allowed windows for its day and no override applies.
type PolicyViolationError struct {
	Reason booking.PolicyReason
}

// Error implements the error interface.
func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("booking outside allowed windows (%s)", e.Reason)
}

// ConflictPendingError is returned when the candidate overlaps existing
// bookings and the caller has not decided whether to proceed. The warnings
// list what would be double-booked.
type ConflictPendingError struct {
	Warnings []ConflictWarning
}

// Error implements the error interface.
func (e *ConflictPendingError) Error() string {
	return fmt.Sprintf("booking conflicts with %d existing booking(s), confirmation required", len(e.Warnings))
}

func isPersistenceNotFound(err error) bool {
	return errors.Is(err, persistence.ErrNotFound)
}

func isPersistenceDuplicate(err error) bool {
	return errors.Is(err, persistence.ErrDuplicate)
}
