package iuow

import (
	"context"

	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/imenurepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ipaymentrepo"
)

// IUnitOfWork groups repositories sharing one transaction. Before Begin the
// repositories run outside a transaction. Rollback after Commit is a no-op.
type IUnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	MenuRepository() imenurepo.IMenuRepository
	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	PaymentRepository() ipaymentrepo.IPaymentRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}
