package payment

import (
	"fmt"
	"testing"

	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Kinds(t *testing.T) {
	tests := []struct {
		reason Reason
		kind   error
	}{
		{ReasonOrderNotFound, apperr.ErrNotFound},
		{ReasonAlreadySettled, apperr.ErrConflict},
		{ReasonCancelled, apperr.ErrConflict},
		{ReasonAmountMismatch, apperr.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			err := fmt.Errorf("process: %w", Reject(7, tt.reason))
			assert.ErrorIs(t, err, tt.kind)

			reason, ok := ReasonOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("upi")
	require.NoError(t, err)
	assert.Equal(t, MethodUPI, m)

	_, err = ParseMethod("barter")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
