// Package response writes JSON bodies and maps service errors to statuses.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
)

const (
	ReasonValidation = "VALIDATION_ERROR"
	ReasonNotFound   = "NOT_FOUND"
	ReasonConflict   = "CONFLICT"
	ReasonTransient  = "TEMPORARILY_UNAVAILABLE"
	ReasonInternal   = "INTERNAL"
)

// Error is the body of every failed request.
type Error struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	Field   string `json:"field,omitempty"`
}

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "Error sending response", "error", err)
	}
}

// Status maps an error to its HTTP status and reason code. Store failures
// are 500; transient ones carry ReasonTransient so clients know to retry.
func Status(err error) (int, string) {
	status, reason := http.StatusInternalServerError, ReasonInternal
	switch {
	case errors.Is(err, apperr.ErrTransient):
		return http.StatusInternalServerError, ReasonTransient
	case errors.Is(err, apperr.ErrValidation):
		status, reason = http.StatusBadRequest, ReasonValidation
	case errors.Is(err, apperr.ErrNotFound):
		status, reason = http.StatusNotFound, ReasonNotFound
	case errors.Is(err, apperr.ErrConflict):
		status, reason = http.StatusConflict, ReasonConflict
	}
	if pr, ok := payment.ReasonOf(err); ok {
		reason = string(pr)
	}

	return status, reason
}

// WriteError logs err and writes the matching status. Internal failures are
// not described to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, reason := Status(err)
	body := Error{Error: err.Error(), Reason: reason}

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}

	switch {
	case reason == ReasonTransient:
		slog.WarnContext(r.Context(), "Request failed on transient error", "path", r.URL.Path, "error", err)
		body.Error = "temporarily unavailable, retry later"
		w.Header().Set("Retry-After", "1")
	case status == http.StatusInternalServerError:
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		body.Error = "internal error"
	default:
		slog.InfoContext(r.Context(), "Request rejected", "path", r.URL.Path, "reason", reason, "error", err)
	}

	WriteJSON(w, r, status, body)
}
