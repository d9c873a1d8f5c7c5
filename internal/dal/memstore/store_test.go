package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, s *Store) order.Order {
	t.Helper()
	o, err := s.NewUnitOfWork().OrderRepository().Insert(context.Background(), order.Order{
		UserID:     1,
		TimeSlot:   "12:30-12:45",
		TotalCents: 13000,
		Status:     order.StatusPending,
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	return o
}

func TestUnitOfWork_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	o := seedOrder(t, s)

	work := s.NewUnitOfWork()
	require.NoError(t, work.Begin(ctx))
	_, err := work.PaymentRepository().Insert(ctx, payment.Payment{OrderID: o.ID, AmountCents: 13000, Status: payment.StatusSuccess})
	require.NoError(t, err)
	ok, err := work.OrderRepository().UpdateStatus(ctx, o.ID, order.StatusPending, order.StatusPaid)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := work.OrderRepository().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, got.Status, "own writes are visible")

	require.NoError(t, work.Rollback(ctx))
	require.NoError(t, work.Rollback(ctx))

	assert.Empty(t, s.Payments())
	assert.Equal(t, order.StatusPending, s.Orders()[0].Status)
}

func TestUnitOfWork_RowLockBlocksSecondReader(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	o := seedOrder(t, s)

	first := s.NewUnitOfWork()
	require.NoError(t, first.Begin(ctx))
	_, err := first.OrderRepository().GetByIDForUpdate(ctx, o.ID)
	require.NoError(t, err)

	second := s.NewUnitOfWork()
	require.NoError(t, second.Begin(ctx))
	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = second.OrderRepository().GetByIDForUpdate(shortCtx, o.ID)
	assert.ErrorIs(t, err, apperr.ErrTransient)

	ok, err := first.OrderRepository().UpdateStatus(ctx, o.ID, order.StatusPending, order.StatusPaid)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, first.Commit(ctx))

	got, err := second.OrderRepository().GetByIDForUpdate(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, got.Status)
	require.NoError(t, second.Rollback(ctx))
}

func TestUnitOfWork_LockOnMissingOrderIsReleased(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	work := s.NewUnitOfWork()
	require.NoError(t, work.Begin(ctx))
	_, err := work.OrderRepository().GetByIDForUpdate(ctx, 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	other := s.NewUnitOfWork()
	require.NoError(t, other.Begin(ctx))
	_, err = other.OrderRepository().GetByIDForUpdate(ctx, 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPaymentRepo_OneSuccessPerOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	o := seedOrder(t, s)

	repo := s.NewUnitOfWork().PaymentRepository()
	_, err := repo.Insert(ctx, payment.Payment{OrderID: o.ID, Status: payment.StatusSuccess})
	require.NoError(t, err)

	_, err = repo.Insert(ctx, payment.Payment{OrderID: o.ID, Status: payment.StatusSuccess})
	reason, ok := payment.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, payment.ReasonAlreadySettled, reason)
	assert.Len(t, s.Payments(), 1)
}

func TestFailNextCommit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.FailNextCommit(assert.AnError)

	work := s.NewUnitOfWork()
	require.NoError(t, work.Begin(ctx))
	_, err := work.OrderRepository().Insert(ctx, order.Order{UserID: 1, Status: order.StatusPending})
	require.NoError(t, err)

	err = work.Commit(ctx)
	assert.ErrorIs(t, err, apperr.ErrTransient)
	assert.Empty(t, s.Orders())
}
