package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain", errors.New("syntax"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "payments_order_success_uidx"}
	assert.True(t, IsUniqueViolation(err, "payments_order_success_uidx"))
	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(err, "payments_transaction_ref_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap("x", nil))

	err := Wrap("failed to lock order", &pgconn.PgError{Code: "55P03"})
	assert.ErrorIs(t, err, apperr.ErrTransient)
	assert.Contains(t, err.Error(), "failed to lock order")

	assert.NotErrorIs(t, Wrap("failed", errors.New("boom")), apperr.ErrTransient)
}
