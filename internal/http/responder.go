package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
)

var (
	errBadRequestBody      = errors.New("o corpo da requisição é inválido")
	errInvalidBookingID    = errors.New("o identificador da reserva é inválido")
	errInvalidUserID       = errors.New("o identificador do usuário é inválido")
	errMissingSessionToken = errors.New("informe o token de sessão")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "você não tem permissão para executar esta operação",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "e-mail ou senha incorretos",
		})
	case errors.Is(err, application.ErrAccountDisabled):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_ACCOUNT_DISABLED",
			Message:   "esta conta está desativada",
		})
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "a sessão expirou, faça login novamente",
		})
	case errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_REVOKED",
			Message:   "a sessão foi encerrada, faça login novamente",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "o recurso solicitado não foi encontrado"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "RESOURCE_ALREADY_EXISTS",
			Message:   "já existe um recurso com esses dados",
		})
	case errors.Is(err, application.ErrBookingDeclined):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "BOOKING_DECLINED",
			Message:   "a reserva foi cancelada a pedido do solicitante",
		})
	default:
		var conflictErr *application.ConflictPendingError
		if errors.As(err, &conflictErr) {
			r.writeJSON(ctx, w, http.StatusConflict, conflictPendingResponse{
				ErrorCode: "BOOKING_CONFLICT_PENDING",
				Message:   "o horário solicitado conflita com reservas existentes; confirme para prosseguir",
				Conflicts: toConflictPayload(conflictErr.Warnings),
			})
			return
		}

		var policyErr *application.PolicyViolationError
		if errors.As(err, &policyErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				ErrorCode: policyErrorCode(policyErr.Reason),
				Message:   policyErrorMessage(policyErr.Reason),
			})
			return
		}

		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "há erros nos dados informados",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "ocorreu um erro interno no servidor"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "a requisição está malformada"
	case http.StatusUnauthorized:
		return "autenticação necessária"
	case http.StatusForbidden:
		return "você não tem permissão para executar esta operação"
	case http.StatusNotFound:
		return "o recurso solicitado não foi encontrado"
	case http.StatusConflict:
		return "a requisição conflita com o estado atual do recurso"
	case http.StatusUnprocessableEntity:
		return "há erros nos dados informados"
	default:
		return "ocorreu um erro interno no servidor"
	}
}

func policyErrorCode(reason booking.PolicyReason) string {
	switch reason {
	case booking.ReasonInvalidInterval:
		return "BOOKING_INVALID_INTERVAL"
	default:
		return "BOOKING_OUTSIDE_WINDOW"
	}
}

func policyErrorMessage(reason booking.PolicyReason) string {
	switch reason {
	case booking.ReasonInvalidInterval:
		return "o horário final deve ser depois do inicial"
	default:
		return "o horário solicitado está fora do período permitido para reservas"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type conflictPendingResponse struct {
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Conflicts []conflictPayload `json:"conflicts"`
}

type conflictPayload struct {
	BookingID string `json:"booking_id"`
	Requester string `json:"requester"`
	Location  string `json:"location"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

func toConflictPayload(warnings []application.ConflictWarning) []conflictPayload {
	if len(warnings) == 0 {
		return nil
	}
	payload := make([]conflictPayload, 0, len(warnings))
	for _, warning := range warnings {
		payload = append(payload, conflictPayload{
			BookingID: warning.BookingID,
			Requester: warning.Requester,
			Location:  warning.Location,
			Start:     warning.Start,
			End:       warning.End,
		})
	}
	return payload
}
