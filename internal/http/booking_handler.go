package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/room-booking/internal/application"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, []application.ConflictWarning, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (application.Booking, []application.ConflictWarning, error)
	GetBooking(ctx context.Context, id string) (application.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, []application.ConflictWarning, error)
	Calendar(ctx context.Context, from, to string) ([]application.CalendarEntry, error)
	DeleteBooking(ctx context.Context, principal application.Principal, id string) error
}

// BookingHandler serves the booking endpoints.
type BookingHandler struct {
	service   bookingService
	responder responder
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{service: service, responder: newResponder(logger)}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	created, warnings, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     req.toInput(),
		Decision:  req.decision(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderBooking(r.Context(), w, created, warnings, http.StatusCreated)
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := bookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	updated, warnings, err := h.service.UpdateBooking(r.Context(), application.UpdateBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Input:     req.toInput(),
		Decision:  req.decision(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderBooking(r.Context(), w, updated, warnings, http.StatusOK)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := bookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	found, err := h.service.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderBooking(r.Context(), w, found, nil, http.StatusOK)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := bookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteBooking(r.Context(), principal, bookingID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := buildListParams(r.URL.Query(), principal)

	bookings, warnings, err := h.service.ListBookings(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := listBookingsResponse{
		Bookings: toBookingDTOs(bookings),
		Warnings: toConflictPayload(warnings),
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

// Calendar handles GET /bookings/calendar, the feed consumed by the
// embeddable calendar widget.
func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))

	entries, err := h.service.Calendar(r.Context(), from, to)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarResponse{Entries: toCalendarDTOs(entries)})
}

func (h *BookingHandler) renderBooking(ctx context.Context, w http.ResponseWriter, b application.Booking, warnings []application.ConflictWarning, status int) {
	payload := bookingResponse{
		Booking:  toBookingDTO(b),
		Warnings: toConflictPayload(warnings),
	}
	h.responder.writeJSON(ctx, w, status, payload)
}

type bookingRequest struct {
	Requester string `json:"requester"`
	Group     string `json:"group"`
	Location  string `json:"location"`
	EventType string `json:"event_type"`
	Date      string `json:"date"`
	Start     string `json:"start"`
	End       string `json:"end"`
	// ConfirmConflicts is tri-state: absent means the caller has not been
	// asked yet, true proceeds despite overlaps, false withdraws.
	ConfirmConflicts *bool `json:"confirm_conflicts"`
}

func (r bookingRequest) toInput() application.BookingInput {
	return application.BookingInput{
		Requester: strings.TrimSpace(r.Requester),
		Group:     strings.TrimSpace(r.Group),
		Location:  strings.TrimSpace(r.Location),
		EventType: strings.TrimSpace(r.EventType),
		Date:      strings.TrimSpace(r.Date),
		Start:     strings.TrimSpace(r.Start),
		End:       strings.TrimSpace(r.End),
	}
}

func (r bookingRequest) decision() application.ConflictDecision {
	if r.ConfirmConflicts == nil {
		return application.ConflictUndecided
	}
	if *r.ConfirmConflicts {
		return application.ConflictConfirm
	}
	return application.ConflictDecline
}

type bookingResponse struct {
	Booking  bookingDTO        `json:"booking"`
	Warnings []conflictPayload `json:"warnings,omitempty"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO      `json:"bookings"`
	Warnings []conflictPayload `json:"warnings,omitempty"`
}

type bookingDTO struct {
	ID            string `json:"id"`
	Requester     string `json:"requester"`
	Group         string `json:"group"`
	Location      string `json:"location"`
	EventType     string `json:"event_type"`
	Date          string `json:"date"`
	Start         string `json:"start"`
	End           string `json:"end"`
	OutsidePolicy bool   `json:"outside_policy"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toBookingDTO(b application.Booking) bookingDTO {
	return bookingDTO{
		ID:            b.ID,
		Requester:     b.Requester,
		Group:         b.Group,
		Location:      b.Location,
		EventType:     b.EventType,
		Date:          b.Date,
		Start:         b.Start,
		End:           b.End,
		OutsidePolicy: b.OutsidePolicy,
		CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     b.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}

type calendarResponse struct {
	Entries []calendarEntryDTO `json:"entries"`
}

type calendarEntryDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func toCalendarDTOs(entries []application.CalendarEntry) []calendarEntryDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]calendarEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, calendarEntryDTO{
			ID:    entry.ID,
			Title: entry.Title,
			Start: entry.Start,
			End:   entry.End,
		})
	}
	return out
}

func buildListParams(values url.Values, principal application.Principal) application.ListBookingsParams {
	params := application.ListBookingsParams{Principal: principal}

	params.Date = strings.TrimSpace(values.Get("date"))
	params.Location = strings.TrimSpace(values.Get("location"))
	params.From = strings.TrimSpace(values.Get("from"))
	params.To = strings.TrimSpace(values.Get("to"))

	if upcoming := strings.TrimSpace(values.Get("upcoming")); upcoming != "" {
		if parsed, err := strconv.ParseBool(upcoming); err == nil {
			params.UpcomingOnly = parsed
		}
	}

	return params
}
