// Package testfixtures supplies deterministic fixtures, clocks and storage
// harnesses shared by the persistence and application tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/persistence"
)

var (
	bookingCounter uint64
	userCounter    uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// BookingFixture represents a deterministic booking record.
type BookingFixture struct {
	ID            string
	Requester     string
	Group         string
	Location      string
	EventType     string
	Date          string
	StartMin      int
	EndMin        int
	OutsidePolicy bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a deterministic booking fixture with optional
// overrides. Successive fixtures land on the same date in adjacent,
// non-overlapping slots.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := 8*60 + int(idx%8)*60
	fixture := BookingFixture{
		ID:        fmt.Sprintf("booking-%03d", idx),
		Requester: fmt.Sprintf("Docente %03d", idx),
		Group:     fmt.Sprintf("Turma %d", idx%6+1),
		Location:  "Quadra",
		EventType: "Aula",
		Date:      "2026-09-14",
		StartMin:  start,
		EndMin:    start + 45,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingRequester sets the requester name.
func WithBookingRequester(name string) BookingOption {
	return func(f *BookingFixture) {
		f.Requester = name
	}
}

// WithBookingGroup sets the group or class the booking is for.
func WithBookingGroup(group string) BookingOption {
	return func(f *BookingFixture) {
		f.Group = group
	}
}

// WithBookingLocation sets the reserved location.
func WithBookingLocation(location string) BookingOption {
	return func(f *BookingFixture) {
		f.Location = location
	}
}

// WithBookingDate sets the booking day (ISO-8601).
func WithBookingDate(date string) BookingOption {
	return func(f *BookingFixture) {
		f.Date = date
	}
}

// WithBookingInterval sets the start and end minutes of day.
func WithBookingInterval(startMin, endMin int) BookingOption {
	return func(f *BookingFixture) {
		f.StartMin = startMin
		f.EndMin = endMin
	}
}

// WithBookingOutsidePolicy flags the booking as a privileged override.
func WithBookingOutsidePolicy() BookingOption {
	return func(f *BookingFixture) {
		f.OutsidePolicy = true
	}
}

// WithBookingTimestamps sets both created and updated timestamps.
func WithBookingTimestamps(created, updated time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Persistence returns the fixture as a persistence.Booking value.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:            f.ID,
		Requester:     f.Requester,
		Group:         f.Group,
		Location:      f.Location,
		EventType:     f.EventType,
		Date:          f.Date,
		StartMin:      f.StartMin,
		EndMin:        f.EndMin,
		OutsidePolicy: f.OutsidePolicy,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Input returns the fixture as an application.BookingInput.
func (f BookingFixture) Input() application.BookingInput {
	return application.BookingInput{
		Requester: f.Requester,
		Group:     f.Group,
		Location:  f.Location,
		EventType: f.EventType,
		Date:      f.Date,
		Start:     clockString(f.StartMin),
		End:       clockString(f.EndMin),
	}
}

// UserFixture represents a deterministic user record.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Privileged   bool
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@escola.example", id),
		DisplayName:  fmt.Sprintf("Docente %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserPrivileged sets the privileged flag.
func WithUserPrivileged(privileged bool) UserOption {
	return func(f *UserFixture) {
		f.Privileged = privileged
	}
}

// WithUserDisabled sets the disabled flag.
func WithUserDisabled(disabled bool) UserOption {
	return func(f *UserFixture) {
		f.Disabled = disabled
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		Privileged:   f.Privileged,
		Disabled:     f.Disabled,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{
		UserID:      f.ID,
		DisplayName: f.DisplayName,
		Privileged:  f.Privileged,
	}
}

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional
// overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		CreatedAt: referenceTime,
		ExpiresAt: referenceTime.Add(24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUserID sets the owning user ID.
func WithSessionUserID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = id
	}
}

// WithSessionToken overrides the token value.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiration timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt sets the optional revocation timestamp.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	var revoked *time.Time
	if f.RevokedAt != nil {
		t := *f.RevokedAt
		revoked = &t
	}
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		CreatedAt: f.CreatedAt,
		ExpiresAt: f.ExpiresAt,
		RevokedAt: revoked,
	}
}

func clockString(minuteOfDay int) string {
	return fmt.Sprintf("%02d:%02d", minuteOfDay/60, minuteOfDay%60)
}
