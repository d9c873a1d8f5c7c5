package iorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
)

// IOrderRepository is an interface for order repository.
// Lookups return an error matching apperr.ErrNotFound for unknown ids.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	GetByID(ctx context.Context, id int64) (order.Order, error)
	// GetByIDForUpdate reads the order and locks its row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (order.Order, error)
	// UpdateStatus moves the order from one status to another and reports
	// whether the order was in the expected status.
	UpdateStatus(ctx context.Context, id int64, from, to order.Status) (bool, error)
}
