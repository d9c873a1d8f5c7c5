package uow

import (
	"context"
	"errors"
	"fmt"

	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/imenurepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ipaymentrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/postgres"
	menurepo "github.com/corray333/backend-labs/canteen/internal/dal/repositories/menu/postgres"
	orderrepo "github.com/corray333/backend-labs/canteen/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/backend-labs/canteen/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/backend-labs/canteen/internal/dal/repositories/outbox/postgres"
	paymentrepo "github.com/corray333/backend-labs/canteen/internal/dal/repositories/payment/postgres"
	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type unitOfWork struct {
	pool          *pgxpool.Pool
	tx            pgx.Tx
	menuRepo      imenurepo.IMenuRepository
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	paymentRepo   ipaymentrepo.IPaymentRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

func (u *unitOfWork) MenuRepository() imenurepo.IMenuRepository {
	return u.menuRepo
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *unitOfWork) PaymentRepository() ipaymentrepo.IPaymentRepository {
	return u.paymentRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewUnitOfWork(client *postgres.Client) *unitOfWork {
	u := &unitOfWork{pool: client.Pool()}
	u.bind(client.Pool())

	return u
}

func (u *unitOfWork) bind(conn postgres.GenericConn) {
	u.menuRepo = menurepo.NewPostgresMenuRepository(conn)
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
	u.paymentRepo = paymentrepo.NewPostgresPaymentRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
}

// Begin opens a read committed transaction and rebinds the repositories to it.
func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return postgres.Wrap("failed to begin transaction", err)
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

// Commit failures are reported as transient. The caller cannot tell whether
// the transaction was applied.
func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	if err := u.tx.Commit(ctx); err != nil {
		return apperr.Transient(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return postgres.Wrap("failed to rollback transaction", err)
	}

	return nil
}
