package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
)

// BookingService coordinates booking creation, listing and removal. Policy
// and conflict decisions live in the booking package; this service supplies
// the stored same-day bookings, applies the caller's conflict decision, and
// persists accepted candidates.
type BookingService struct {
	bookings    persistence.BookingRepository
	policy      booking.WeeklyPolicy
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	warnings    *warningCache
}

// NewBookingService constructs a BookingService with the provided dependencies.
func NewBookingService(bookings persistence.BookingRepository, policy booking.WeeklyPolicy, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, policy, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a BookingService with a specified logger.
func NewBookingServiceWithLogger(bookings persistence.BookingRepository, policy booking.WeeklyPolicy, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		policy:      policy,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		warnings:    newWarningCache(30*time.Second, 128, now),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking validates the candidate against the weekly policy and the
// already stored bookings on the same day. When overlaps exist the outcome
// depends on params.Decision: undecided suspends with ConflictPendingError,
// confirm proceeds, decline returns ErrBookingDeclined. The returned
// warnings accompany both accepted and suspended outcomes.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (result Booking, warnings []ConflictWarning, err error) {
	logger := s.loggerWith(ctx, "CreateBooking",
		"user_id", params.Principal.UserID,
		"date", params.Input.Date,
		"location", params.Input.Location,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", result.ID, "conflicts", len(warnings)).
			InfoContext(ctx, "booking created")
	}()

	candidate, vErr := parseBookingInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	candidate.ID = s.idGenerator()
	candidate.Requester = strings.TrimSpace(params.Input.Requester)

	outcome, overlaps, err := s.runWorkflow(ctx, candidate, params.Principal, params.Decision, "")
	if err != nil {
		return
	}
	warnings = overlaps

	stored := toStoredBooking(*outcome.Accepted, outcome.PolicyReason)
	if err = s.bookings.CreateBooking(ctx, stored); err != nil {
		err = mapBookingRepoError(err)
		return
	}
	s.warnings.Invalidate()

	result, err = s.fetch(ctx, stored.ID)
	return
}

// UpdateBooking revalidates and rewrites an existing booking. Only the
// owner (matched by requester name) or a privileged principal may update.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (result Booking, warnings []ConflictWarning, err error) {
	logger := s.loggerWith(ctx, "UpdateBooking",
		"user_id", params.Principal.UserID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking updated")
	}()

	existing, err := s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}
	if !canModify(params.Principal, existing) {
		err = ErrUnauthorized
		return
	}

	candidate, vErr := parseBookingInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	candidate.ID = params.BookingID
	candidate.Requester = strings.TrimSpace(params.Input.Requester)

	outcome, overlaps, err := s.runWorkflow(ctx, candidate, params.Principal, params.Decision, params.BookingID)
	if err != nil {
		return
	}
	warnings = overlaps

	stored := toStoredBooking(*outcome.Accepted, outcome.PolicyReason)
	stored.CreatedAt = existing.CreatedAt
	if err = s.bookings.UpdateBooking(ctx, stored); err != nil {
		err = mapBookingRepoError(err)
		return
	}
	s.warnings.Invalidate()

	result, err = s.fetch(ctx, params.BookingID)
	return
}

// runWorkflow loads the same-day bookings and runs the decision workflow,
// translating suspensions and rejections into service errors.
func (s *BookingService) runWorkflow(ctx context.Context, candidate booking.Booking, principal Principal, decision ConflictDecision, excludeID string) (booking.Result, []ConflictWarning, error) {
	rows, err := s.bookings.ListBookingsOnDate(ctx, candidate.Date.String())
	if err != nil {
		return booking.Result{}, nil, mapBookingRepoError(err)
	}

	sameDay := make([]booking.Booking, 0, len(rows))
	for _, row := range rows {
		if excludeID != "" && row.ID == excludeID {
			continue
		}
		sameDay = append(sameDay, toDomainBooking(row))
	}

	confirm := confirmFromDecision(decision)
	outcome, err := booking.Run(ctx, candidate, sameDay, s.policy, principal.Privileged, confirm)
	if err != nil {
		return booking.Result{}, nil, err
	}

	warnings := toConflictWarnings(outcome.Overlaps)
	switch outcome.State {
	case booking.StateAwaitingConfirmation:
		return outcome, warnings, &ConflictPendingError{Warnings: warnings}
	case booking.StateRejected:
		return outcome, warnings, rejectionError(outcome)
	case booking.StateAccepted:
		return outcome, warnings, nil
	default:
		return outcome, warnings, fmt.Errorf("unexpected workflow state %q", outcome.State)
	}
}

// GetBooking fetches a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, id string) (Booking, error) {
	return s.fetch(ctx, id)
}

// ListBookings returns bookings matching the filters together with the
// conflict warnings among the returned set. Warnings for a repeated query
// are served from a short-lived cache.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) ([]Booking, []ConflictWarning, error) {
	filter := persistence.BookingFilter{
		Date:     strings.TrimSpace(params.Date),
		Location: strings.TrimSpace(params.Location),
		From:     strings.TrimSpace(params.From),
		To:       strings.TrimSpace(params.To),
	}

	rows, err := s.bookings.ListBookings(ctx, filter)
	if err != nil {
		return nil, nil, mapBookingRepoError(err)
	}

	bookings := make([]Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, toAppBooking(row))
	}

	if params.UpcomingOnly {
		bookings = filterUpcoming(bookings, s.now())
	}

	key := buildWarningCacheKey(params)
	warnings, ok := s.warnings.Get(key)
	if !ok {
		warnings = detectListConflicts(rows)
		s.warnings.Store(key, warnings)
	}

	return bookings, warnings, nil
}

// Calendar returns the bookings in the inclusive day range as calendar
// feed entries titled "group - requester (location)".
func (s *BookingService) Calendar(ctx context.Context, from, to string) ([]CalendarEntry, error) {
	rows, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{From: from, To: to})
	if err != nil {
		return nil, mapBookingRepoError(err)
	}

	entries := make([]CalendarEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, CalendarEntry{
			ID:    row.ID,
			Title: fmt.Sprintf("%s - %s (%s)", row.Group, row.Requester, row.Location),
			Start: row.Date + "T" + booking.MinuteOfDay(row.StartMin).Clock() + ":00",
			End:   row.Date + "T" + booking.MinuteOfDay(row.EndMin).Clock() + ":00",
		})
	}
	return entries, nil
}

// DeleteBooking removes a booking. Only the owner or a privileged
// principal may delete.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, id string) (err error) {
	logger := s.loggerWith(ctx, "DeleteBooking",
		"user_id", principal.UserID,
		"booking_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking deletion failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking deleted")
	}()

	existing, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}
	if !canModify(principal, existing) {
		err = ErrUnauthorized
		return
	}

	if err = s.bookings.DeleteBooking(ctx, id); err != nil {
		err = mapBookingRepoError(err)
		return
	}
	s.warnings.Invalidate()
	return nil
}

func (s *BookingService) fetch(ctx context.Context, id string) (Booking, error) {
	row, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	return toAppBooking(row), nil
}

func canModify(principal Principal, row persistence.Booking) bool {
	if principal.Privileged {
		return true
	}
	return principal.DisplayName != "" && strings.EqualFold(principal.DisplayName, row.Requester)
}

func confirmFromDecision(decision ConflictDecision) booking.ConfirmFunc {
	switch decision {
	case ConflictConfirm:
		return func(context.Context, []booking.Overlap) (bool, error) { return true, nil }
	case ConflictDecline:
		return func(context.Context, []booking.Overlap) (bool, error) { return false, nil }
	default:
		return nil
	}
}

func rejectionError(outcome booking.Result) error {
	switch outcome.RejectReason {
	case booking.RejectMissingField:
		vErr := &ValidationError{}
		for _, field := range outcome.MissingFields {
			vErr.add(field, "campo obrigatório")
		}
		return vErr
	case booking.RejectInvalidInterval:
		vErr := &ValidationError{}
		vErr.add("end", "o horário final deve ser depois do inicial")
		return vErr
	case booking.RejectOutsideWindow:
		return &PolicyViolationError{Reason: outcome.PolicyReason}
	case booking.RejectUserCancelledOnConflict:
		return ErrBookingDeclined
	default:
		return fmt.Errorf("unexpected rejection reason %q", outcome.RejectReason)
	}
}

// parseBookingInput validates the raw input fields and builds the domain
// candidate. Missing required fields and malformed values are aggregated
// per field.
func parseBookingInput(input BookingInput) (booking.Booking, *ValidationError) {
	vErr := &ValidationError{}
	candidate := booking.Booking{
		Requester: strings.TrimSpace(input.Requester),
		Group:     strings.TrimSpace(input.Group),
		Location:  strings.TrimSpace(input.Location),
		EventType: strings.TrimSpace(input.EventType),
	}

	required := map[string]string{
		"requester":  candidate.Requester,
		"group":      candidate.Group,
		"location":   candidate.Location,
		"event_type": candidate.EventType,
	}
	for field, value := range required {
		if value == "" {
			vErr.add(field, "campo obrigatório")
		}
	}

	if strings.TrimSpace(input.Date) == "" {
		vErr.add("date", "campo obrigatório")
	} else {
		date, err := booking.ParseDate(strings.TrimSpace(input.Date))
		if err != nil {
			vErr.add("date", "data inválida, use AAAA-MM-DD")
		} else {
			candidate.Date = date
		}
	}

	candidate.Start = parseClockField(input.Start, "start", vErr)
	candidate.End = parseClockField(input.End, "end", vErr)
	if !vErr.HasErrors() && candidate.Start >= candidate.End {
		vErr.add("end", "o horário final deve ser depois do inicial")
	}

	return candidate, vErr
}

func parseClockField(value, field string, vErr *ValidationError) booking.MinuteOfDay {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		vErr.add(field, "campo obrigatório")
		return 0
	}
	minute, err := booking.ParseClock(trimmed)
	if err != nil {
		vErr.add(field, "horário inválido, use HH:MM")
		return 0
	}
	return minute
}

// detectListConflicts reports every pairwise overlap within the listed
// bookings, one warning per overlapping partner.
func detectListConflicts(rows []persistence.Booking) []ConflictWarning {
	byDate := make(map[string][]persistence.Booking)
	for _, row := range rows {
		byDate[row.Date] = append(byDate[row.Date], row)
	}

	var warnings []ConflictWarning
	for _, group := range byDate {
		sort.Slice(group, func(i, j int) bool { return group[i].StartMin < group[j].StartMin })
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[j].StartMin >= group[i].EndMin {
					break
				}
				warnings = append(warnings, ConflictWarning{
					BookingID: group[j].ID,
					Requester: group[j].Requester,
					Location:  group[j].Location,
					Start:     booking.MinuteOfDay(group[j].StartMin).Clock(),
					End:       booking.MinuteOfDay(group[j].EndMin).Clock(),
				})
			}
		}
	}
	return warnings
}

func filterUpcoming(bookings []Booking, now time.Time) []Booking {
	today := now.Format("2006-01-02")
	nowClock := now.Format("15:04")

	// A booking ending exactly now still counts as upcoming.
	out := bookings[:0]
	for _, b := range bookings {
		if b.Date > today || (b.Date == today && b.End >= nowClock) {
			out = append(out, b)
		}
	}
	return out
}

func toDomainBooking(row persistence.Booking) booking.Booking {
	date, _ := booking.ParseDate(row.Date)
	return booking.Booking{
		ID:        row.ID,
		Requester: row.Requester,
		Group:     row.Group,
		Location:  row.Location,
		EventType: row.EventType,
		Date:      date,
		Start:     booking.MinuteOfDay(row.StartMin),
		End:       booking.MinuteOfDay(row.EndMin),
	}
}

func toStoredBooking(b booking.Booking, reason booking.PolicyReason) persistence.Booking {
	return persistence.Booking{
		ID:            b.ID,
		Requester:     b.Requester,
		Group:         b.Group,
		Location:      b.Location,
		EventType:     b.EventType,
		Date:          b.Date.String(),
		StartMin:      int(b.Start),
		EndMin:        int(b.End),
		OutsidePolicy: reason == booking.ReasonPrivilegedOverride,
	}
}

func toAppBooking(row persistence.Booking) Booking {
	return Booking{
		ID:            row.ID,
		Requester:     row.Requester,
		Group:         row.Group,
		Location:      row.Location,
		EventType:     row.EventType,
		Date:          row.Date,
		Start:         booking.MinuteOfDay(row.StartMin).Clock(),
		End:           booking.MinuteOfDay(row.EndMin).Clock(),
		OutsidePolicy: row.OutsidePolicy,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func toConflictWarnings(overlaps []booking.Overlap) []ConflictWarning {
	if len(overlaps) == 0 {
		return nil
	}
	warnings := make([]ConflictWarning, 0, len(overlaps))
	for _, o := range overlaps {
		warnings = append(warnings, ConflictWarning{
			BookingID: o.WithBookingID,
			Requester: o.Requester,
			Location:  o.Location,
			Start:     o.Window.Start.Clock(),
			End:       o.Window.End.Clock(),
		})
	}
	return warnings
}

func mapBookingRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isPersistenceNotFound(err):
		return ErrNotFound
	case isPersistenceDuplicate(err):
		return ErrAlreadyExists
	default:
		return err
	}
}
