package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/testfixtures"
)

// fakeBookingRepo is an in-memory persistence.BookingRepository.
type fakeBookingRepo struct {
	rows    map[string]persistence.Booking
	listErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{rows: make(map[string]persistence.Booking)}
}

func (f *fakeBookingRepo) CreateBooking(_ context.Context, b persistence.Booking) error {
	if _, ok := f.rows[b.ID]; ok {
		return persistence.ErrDuplicate
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	f.rows[b.ID] = b
	return nil
}

func (f *fakeBookingRepo) GetBooking(_ context.Context, id string) (persistence.Booking, error) {
	b, ok := f.rows[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) ListBookings(_ context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []persistence.Booking
	for _, b := range f.rows {
		if filter.Date != "" && b.Date != filter.Date {
			continue
		}
		if filter.Date == "" {
			if filter.From != "" && b.Date < filter.From {
				continue
			}
			if filter.To != "" && b.Date > filter.To {
				continue
			}
		}
		if filter.Location != "" && b.Location != filter.Location {
			continue
		}
		out = append(out, b)
	}
	// Match the SQL ordering.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Date < out[i].Date || (out[j].Date == out[i].Date && out[j].StartMin < out[i].StartMin) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListBookingsOnDate(ctx context.Context, date string) ([]persistence.Booking, error) {
	return f.ListBookings(ctx, persistence.BookingFilter{Date: date})
}

func (f *fakeBookingRepo) UpdateBooking(_ context.Context, b persistence.Booking) error {
	if _, ok := f.rows[b.ID]; !ok {
		return persistence.ErrNotFound
	}
	b.UpdatedAt = time.Now().UTC()
	f.rows[b.ID] = b
	return nil
}

func (f *fakeBookingRepo) DeleteBooking(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func testPolicy() booking.WeeklyPolicy {
	weekday := booking.DayPolicy{
		Windows: []booking.Window{
			{Start: 7*60 + 45, End: 11*60 + 15},
			{Start: 13*60 + 15, End: 16*60 + 45},
		},
	}
	weekend := booking.DayPolicy{
		Windows:       []booking.Window{{Start: 7 * 60, End: 22 * 60}},
		AllowOverride: true,
	}

	var p booking.WeeklyPolicy
	p[time.Sunday] = weekend
	p[time.Monday] = weekday
	p[time.Tuesday] = weekday
	p[time.Wednesday] = weekday
	p[time.Thursday] = weekday
	p[time.Friday] = weekday
	p[time.Saturday] = weekend
	return p
}

func newTestBookingService(repo *fakeBookingRepo) *application.BookingService {
	gen := testfixtures.NewIDGenerator("b")
	return application.NewBookingService(repo, testPolicy(), gen.NextFunc(), time.Now)
}

// 2026-09-14 is a Monday.
func validInput() application.BookingInput {
	return testfixtures.NewBookingFixture(
		testfixtures.WithBookingRequester("Ana"),
		testfixtures.WithBookingGroup("3B"),
		testfixtures.WithBookingLocation("Quadra"),
		testfixtures.WithBookingDate("2026-09-14"),
		testfixtures.WithBookingInterval(8*60, 9*60),
	).Input()
}

func TestCreateBooking_Success(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestBookingService(repo)

	created, warnings, err := svc.CreateBooking(context.Background(), application.CreateBookingParams{
		Principal: application.Principal{UserID: "u-1", DisplayName: "Ana"},
		Input:     validInput(),
	})
	if err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if created.ID == "" {
		t.Error("created booking has empty ID")
	}
	if created.Start != "08:00" || created.End != "09:00" {
		t.Errorf("created interval = %s-%s", created.Start, created.End)
	}
	if created.OutsidePolicy {
		t.Error("booking inside windows marked outside policy")
	}
	if len(repo.rows) != 1 {
		t.Errorf("repo holds %d rows, want 1", len(repo.rows))
	}
}

func TestCreateBooking_MissingFields(t *testing.T) {
	svc := newTestBookingService(newFakeBookingRepo())

	input := validInput()
	input.Requester = "  "
	input.Group = ""

	_, _, err := svc.CreateBooking(context.Background(), application.CreateBookingParams{Input: input})

	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	for _, field := range []string{"requester", "group"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("missing field error for %q: %v", field, vErr.FieldErrors)
		}
	}
}

func TestCreateBooking_InvalidInterval(t *testing.T) {
	svc := newTestBookingService(newFakeBookingRepo())

	input := validInput()
	input.Start = "10:00"
	input.End = "09:00"

	_, _, err := svc.CreateBooking(context.Background(), application.CreateBookingParams{Input: input})

	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if _, ok := vErr.FieldErrors["end"]; !ok {
		t.Errorf("no error recorded for end field: %v", vErr.FieldErrors)
	}
}

func TestCreateBooking_OutsideWindow(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestBookingService(repo)

	input := validInput()
	input.Start = "12:00" // lunch gap on a Monday
	input.End = "13:00"

	_, _, err := svc.CreateBooking(context.Background(), application.CreateBookingParams{Input: input})

	var pErr *application.PolicyViolationError
	if !errors.As(err, &pErr) {
		t.Fatalf("error = %v, want *PolicyViolationError", err)
	}
	if pErr.Reason != booking.ReasonOutsideWindow {
		t.Errorf("Reason = %q, want %q", pErr.Reason, booking.ReasonOutsideWindow)
	}
	if len(repo.rows) != 0 {
		t.Error("rejected booking was persisted")
	}
}

func TestCreateBooking_WeekendOverrideForPrivileged(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestBookingService(repo)

	input := validInput()
	input.Date = "2026-09-13" // Sunday
	input.Start = "06:00"     // before the weekend window opens
	input.End = "06:45"

	// Unprivileged callers are rejected.
	_, _, err := svc.CreateBooking(context.Background(), application.CreateBookingParams{Input: input})
	var pErr *application.PolicyViolationError
	if !errors.As(err, &pErr) {
		t.Fatalf("unprivileged error = %v, want *PolicyViolationError", err)
	}

	// Privileged callers get the override and the row is flagged.
	created, _, err := svc.CreateBooking(context.Background(), application.CreateBookingParams{
		Principal: application.Principal{UserID: "u-1", Privileged: true},
		Input:     input,
	})
	if err != nil {
		t.Fatalf("privileged CreateBooking returned error: %v", err)
	}
	if !created.OutsidePolicy {
		t.Error("override booking not marked outside policy")
	}
}

func seedConflict(t *testing.T, repo *fakeBookingRepo) {
	t.Helper()
	seed := testfixtures.NewBookingFixture(
		testfixtures.WithBookingID("existing"),
		testfixtures.WithBookingRequester("Bia"),
		testfixtures.WithBookingGroup("2A"),
		testfixtures.WithBookingLocation("Sala 1"),
		testfixtures.WithBookingDate("2026-09-14"),
		testfixtures.WithBookingInterval(8*60, 9*60),
	).Persistence()
	if err := repo.CreateBooking(context.Background(), seed); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
}

func TestCreateBooking_ConflictUndecidedSuspends(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestBookingService(repo)
	seedConflict(t, repo)

	_, _, err := svc.CreateBooking(context.Background(), application.CreateBookingParams{
		Principal: application.Principal{UserID: "u-1"},
		Input:     validInput(),
		Decision:  application.ConflictUndecided,
	})

	var cErr *application.ConflictPendingError
	if !errors.As(err, &cErr) {
		t.Fatalf("error = %v, want *ConflictPendingError", err)
	}
	if len(cErr.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want 1 entry", cErr.Warnings)
	}
	w := cErr.Warnings[0]
	if w.BookingID != "existing" || w.Requester != "Bia" || w.Start != "08:00" || w.End != "09:00" {
		t.Errorf("warning = %+v", w)
	}
	if len(repo.rows) != 1 {
		t.Error("suspended booking was persisted")
	}
}

func TestCreateBooking_ConflictConfirmed(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestBookingService(repo)
	seedConflict(t, repo)

	created, warnings, err := svc.CreateBooking(context.Background(), application.CreateBookingParams{
		Principal: application.Principal{UserID: "u-1"},
		Input:     validInput(),
		Decision:  application.ConflictConfirm,
	})
	if err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want 1 entry", warnings)
	}
	if _, ok := repo.rows[created.ID]; !ok {
		t.Error("confirmed booking not persisted")
	}
}

func TestCreateBooking_ConflictDeclined(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestBookingService(repo)
	seedConflict(t, repo)

	_, _, err := svc.CreateBooking(context.Background(), application.CreateBookingParams{
		Principal: application.Principal{UserID: "u-1"},
		Input:     validInput(),
		Decision:  application.ConflictDecline,
	})
	if !errors.Is(err, application.ErrBookingDeclined) {
		t.Fatalf("error = %v, want ErrBookingDeclined", err)
	}
	if len(repo.rows) != 1 {
		t.Error("declined booking changed the store")
	}
}

func TestCreateBooking_TouchingIntervalsDoNotConflict(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestBookingService(repo)
	seedConflict(t, repo)

	input := validInput()
	input.Start = "09:00" // starts exactly when the seeded booking ends
	input.End = "10:00"

	_, warnings, err := svc.CreateBooking(context.Background(), application.CreateBookingParams{
		Principal: application.Principal{UserID: "u-1"},
		Input:     input,
	})
	if err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestUpdateBooking_ExcludesSelfFromConflicts(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestBookingService(repo)
	seedConflict(t, repo)

	input := validInput()
	input.Requester = "Bia"
	input.Start = "08:15"
	input.End = "09:15"

	updated, warnings, err := svc.UpdateBooking(context.Background(), application.UpdateBookingParams{
		Principal: application.Principal{UserID: "u-2", DisplayName: "Bia"},
		BookingID: "existing",
		Input:     input,
	})
	if err != nil {
		t.Fatalf("UpdateBooking returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none (self excluded)", warnings)
	}
	if updated.Start != "08:15" {
		t.Errorf("Start = %s, want 08:15", updated.Start)
	}
}

func TestUpdateBooking_RequiresOwnerOrPrivileged(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestBookingService(repo)
	seedConflict(t, repo)

	input := validInput()
	input.Requester = "Bia"

	_, _, err := svc.UpdateBooking(context.Background(), application.UpdateBookingParams{
		Principal: application.Principal{UserID: "u-9", DisplayName: "Carla"},
		BookingID: "existing",
		Input:     input,
	})
	if !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestDeleteBooking(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestBookingService(repo)
	seedConflict(t, repo)

	ctx := context.Background()
	if err := svc.DeleteBooking(ctx, application.Principal{UserID: "u-9", DisplayName: "Carla"}, "existing"); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("stranger delete error = %v, want ErrUnauthorized", err)
	}
	if err := svc.DeleteBooking(ctx, application.Principal{UserID: "u-1", Privileged: true}, "existing"); err != nil {
		t.Fatalf("privileged delete error = %v", err)
	}
	if err := svc.DeleteBooking(ctx, application.Principal{UserID: "u-1", Privileged: true}, "existing"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestListBookings_UpcomingOnly(t *testing.T) {
	repo := newFakeBookingRepo()
	ctx := context.Background()

	clock := testfixtures.NewClock(time.Date(2026, time.September, 14, 10, 0, 0, 0, time.UTC))
	seed := []testfixtures.BookingFixture{
		testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("past-day"),
			testfixtures.WithBookingDate("2026-09-11"),
			testfixtures.WithBookingInterval(480, 540),
		),
		testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("earlier-today"),
			testfixtures.WithBookingDate("2026-09-14"),
			testfixtures.WithBookingInterval(480, 540),
		),
		testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("ends-now"),
			testfixtures.WithBookingDate("2026-09-14"),
			testfixtures.WithBookingInterval(540, 600),
		),
		testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("ongoing"),
			testfixtures.WithBookingDate("2026-09-14"),
			testfixtures.WithBookingInterval(570, 660),
		),
		testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("future"),
			testfixtures.WithBookingDate("2026-09-15"),
			testfixtures.WithBookingInterval(480, 540),
		),
	}
	for _, f := range seed {
		if err := repo.CreateBooking(ctx, f.Persistence()); err != nil {
			t.Fatalf("seed %s: %v", f.ID, err)
		}
	}

	svc := application.NewBookingService(repo, testPolicy(), nil, clock.NowFunc())

	bookings, _, err := svc.ListBookings(ctx, application.ListBookingsParams{UpcomingOnly: true})
	if err != nil {
		t.Fatalf("ListBookings returned error: %v", err)
	}

	got := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		got[b.ID] = true
	}
	if got["past-day"] || got["earlier-today"] {
		t.Errorf("finished bookings included: %v", got)
	}
	// A booking ending exactly at the current minute still counts.
	if !got["ends-now"] || !got["ongoing"] || !got["future"] {
		t.Errorf("upcoming bookings missing: %v", got)
	}
}

func TestListBookings_WarningsForOverlaps(t *testing.T) {
	repo := newFakeBookingRepo()
	ctx := context.Background()

	seed := []testfixtures.BookingFixture{
		testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("a"),
			testfixtures.WithBookingDate("2026-09-14"),
			testfixtures.WithBookingInterval(480, 600),
		),
		testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("b"),
			testfixtures.WithBookingDate("2026-09-14"),
			testfixtures.WithBookingInterval(540, 660),
		),
		testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("c"),
			testfixtures.WithBookingDate("2026-09-15"),
			testfixtures.WithBookingInterval(540, 660),
		),
	}
	for _, f := range seed {
		if err := repo.CreateBooking(ctx, f.Persistence()); err != nil {
			t.Fatalf("seed %s: %v", f.ID, err)
		}
	}

	svc := newTestBookingService(repo)
	_, warnings, err := svc.ListBookings(ctx, application.ListBookingsParams{})
	if err != nil {
		t.Fatalf("ListBookings returned error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want 1 entry", warnings)
	}
	if warnings[0].BookingID != "b" {
		t.Errorf("warning BookingID = %q, want %q", warnings[0].BookingID, "b")
	}
}

func TestCalendarEntries(t *testing.T) {
	repo := newFakeBookingRepo()
	ctx := context.Background()

	seed := testfixtures.NewBookingFixture(
		testfixtures.WithBookingID("b-1"),
		testfixtures.WithBookingRequester("Ana"),
		testfixtures.WithBookingGroup("3B"),
		testfixtures.WithBookingLocation("Quadra"),
		testfixtures.WithBookingDate("2026-09-14"),
		testfixtures.WithBookingInterval(8*60, 9*60),
	)
	if err := repo.CreateBooking(ctx, seed.Persistence()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := newTestBookingService(repo)
	entries, err := svc.Calendar(ctx, "2026-09-14", "2026-09-20")
	if err != nil {
		t.Fatalf("Calendar returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %v, want 1", entries)
	}
	e := entries[0]
	if e.Title != "3B - Ana (Quadra)" {
		t.Errorf("Title = %q", e.Title)
	}
	if e.Start != "2026-09-14T08:00:00" || e.End != "2026-09-14T09:00:00" {
		t.Errorf("Start/End = %s / %s", e.Start, e.End)
	}
}
