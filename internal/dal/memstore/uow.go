package memstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/imenurepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ipaymentrepo"
	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
)

var errTxStarted = errors.New("transaction already started")

type statusChange struct {
	from, to order.Status
	at       time.Time
}

// unitOfWork buffers writes while a transaction is open. Outside a
// transaction every write is committed immediately.
type unitOfWork struct {
	store *Store
	inTx  bool

	locked   map[int64]struct{}
	orders   map[int64]order.Order
	statuses map[int64]statusChange
	items    []orderitem.OrderItem
	payments []payment.Payment
	outbox   []outbox.OutboxMessage
}

func (u *unitOfWork) MenuRepository() imenurepo.IMenuRepository {
	return &menuRepo{u: u}
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return &orderRepo{u: u}
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return &orderItemRepo{u: u}
}

func (u *unitOfWork) PaymentRepository() ipaymentrepo.IPaymentRepository {
	return &paymentRepo{u: u}
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &outboxRepo{u: u}
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if u.inTx {
		return errTxStarted
	}
	u.inTx = true
	u.reset()

	return nil
}

func (u *unitOfWork) reset() {
	u.locked = make(map[int64]struct{})
	u.orders = make(map[int64]order.Order)
	u.statuses = make(map[int64]statusChange)
	u.items = nil
	u.payments = nil
	u.outbox = nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if !u.inTx {
		return nil
	}
	defer u.end()

	if err := u.store.takeCommitErr(); err != nil {
		return apperr.Transient(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return u.flush()
}

func (u *unitOfWork) Rollback(context.Context) error {
	if !u.inTx {
		return nil
	}
	u.end()

	return nil
}

func (u *unitOfWork) end() {
	for id := range u.locked {
		u.store.unlockOrder(id)
	}
	u.inTx = false
	u.reset()
}

// autocommit flushes immediately when no transaction is open.
func (u *unitOfWork) autocommit() error {
	if u.inTx {
		return nil
	}
	defer u.reset()

	return u.flush()
}

// flush validates the buffered writes against committed state and applies
// them atomically.
func (u *unitOfWork) flush() error {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, change := range u.statuses {
		current, ok := s.orders[id]
		if pending, isNew := u.orders[id]; isNew {
			current, ok = pending, true
		}
		if !ok || current.Status != change.from {
			return apperr.Conflict("order %d changed concurrently", id)
		}
	}
	for i, p := range u.payments {
		if p.Status != payment.StatusSuccess {
			continue
		}
		if s.hasSuccessfulPayment(p.OrderID) {
			return payment.Reject(p.OrderID, payment.ReasonAlreadySettled)
		}
		for _, other := range u.payments[:i] {
			if other.OrderID == p.OrderID && other.Status == payment.StatusSuccess {
				return payment.Reject(p.OrderID, payment.ReasonAlreadySettled)
			}
		}
	}

	for id, o := range u.orders {
		s.orders[id] = o
	}
	for id, change := range u.statuses {
		o := s.orders[id]
		o.Status = change.to
		o.UpdatedAt = change.at
		s.orders[id] = o
	}
	s.items = append(s.items, u.items...)
	s.payments = append(s.payments, u.payments...)
	for _, msg := range u.outbox {
		s.outbox[msg.ID] = msg
	}

	return nil
}

// readOrder sees committed state plus this unit's own writes.
func (u *unitOfWork) readOrder(id int64) (order.Order, bool) {
	o, ok := u.orders[id]
	if !ok {
		u.store.mu.RLock()
		o, ok = u.store.orders[id]
		u.store.mu.RUnlock()
	}
	if !ok {
		return order.Order{}, false
	}
	if change, changed := u.statuses[id]; changed {
		o.Status = change.to
		o.UpdatedAt = change.at
	}

	return o, true
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperr.Transient(fmt.Errorf("memstore: %w", err))
	}

	return nil
}
