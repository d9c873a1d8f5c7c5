package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"validation", apperr.Validation("items", "must not be empty"), http.StatusBadRequest, ReasonValidation},
		{"not found", apperr.NotFound("order", 1), http.StatusNotFound, ReasonNotFound},
		{"order not found", payment.Reject(1, payment.ReasonOrderNotFound), http.StatusNotFound, "ORDER_NOT_FOUND"},
		{"already settled", payment.Reject(1, payment.ReasonAlreadySettled), http.StatusConflict, "ALREADY_SETTLED"},
		{"cancelled", payment.Reject(1, payment.ReasonCancelled), http.StatusConflict, "CANCELLED"},
		{"mismatch", payment.Reject(1, payment.ReasonAmountMismatch), http.StatusConflict, "AMOUNT_MISMATCH"},
		{"transient", apperr.Transient(errors.New("lock timeout")), http.StatusInternalServerError, ReasonTransient},
		{"internal", fmt.Errorf("failed to scan: %w", errors.New("bad column")), http.StatusInternalServerError, ReasonInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reason := Status(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		reason     string
		message    string
		retryAfter string
	}{
		{"transient", apperr.Transient(errors.New("connection reset")), ReasonTransient, "temporarily unavailable, retry later", "1"},
		{"internal", errors.New("bad column"), ReasonInternal, "internal error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodPost, "/api/payment", nil), tt.err)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))

			var body Error
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.reason, body.Reason)
			assert.Equal(t, tt.message, body.Error)
		})
	}
}
