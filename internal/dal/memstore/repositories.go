package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
)

type menuRepo struct {
	u *unitOfWork
}

func (r *menuRepo) Query(ctx context.Context, filter *menuitem.QueryMenuItemsModel) ([]menuitem.MenuItem, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []menuitem.MenuItem
	for _, item := range s.menu {
		if len(filter.Ids) > 0 && !slices.Contains(filter.Ids, item.ID) {
			continue
		}
		if filter.OnlyAvailable && !item.Available {
			continue
		}
		result = append(result, item)
	}
	slices.SortFunc(result, func(a, b menuitem.MenuItem) int {
		return cmp.Or(
			cmp.Compare(a.Category, b.Category),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})

	return result, nil
}

type orderRepo struct {
	u *unitOfWork
}

func (r *orderRepo) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	if err := ctxErr(ctx); err != nil {
		return order.Order{}, err
	}

	o.ID = r.u.store.orderSeq.Add(1)
	o.Items = nil
	r.u.orders[o.ID] = o

	return o, r.u.autocommit()
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (order.Order, error) {
	if err := ctxErr(ctx); err != nil {
		return order.Order{}, err
	}

	o, ok := r.u.readOrder(id)
	if !ok {
		return order.Order{}, apperr.NotFound("order", id)
	}

	return o, nil
}

func (r *orderRepo) GetByIDForUpdate(ctx context.Context, id int64) (order.Order, error) {
	if err := ctxErr(ctx); err != nil {
		return order.Order{}, err
	}

	u := r.u
	_, own := u.orders[id]
	_, held := u.locked[id]
	if u.inTx && !own && !held {
		if err := u.store.lockOrder(ctx, id); err != nil {
			return order.Order{}, err
		}
		u.locked[id] = struct{}{}
	}

	o, ok := u.readOrder(id)
	if !ok {
		if _, held := u.locked[id]; held {
			delete(u.locked, id)
			u.store.unlockOrder(id)
		}

		return order.Order{}, apperr.NotFound("order", id)
	}

	return o, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, from, to order.Status) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}

	o, ok := r.u.readOrder(id)
	if !ok || o.Status != from {
		return false, nil
	}
	r.u.statuses[id] = statusChange{from: o.Status, to: to, at: time.Now().UTC()}

	return true, r.u.autocommit()
}

type orderItemRepo struct {
	u *unitOfWork
}

func (r *orderItemRepo) BulkInsert(ctx context.Context, orderItems []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	result := make([]orderitem.OrderItem, 0, len(orderItems))
	for _, item := range orderItems {
		if _, ok := r.u.readOrder(item.OrderID); !ok {
			return nil, apperr.NotFound("order", item.OrderID)
		}
		item.ID = r.u.store.itemSeq.Add(1)
		result = append(result, item)
	}
	r.u.items = append(r.u.items, result...)

	return result, r.u.autocommit()
}

func (r *orderItemRepo) Query(ctx context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s := r.u.store
	s.mu.RLock()
	all := append(slices.Clone(s.items), r.u.items...)
	s.mu.RUnlock()

	var result []orderitem.OrderItem
	for _, item := range all {
		if len(filter.OrderIds) == 0 || slices.Contains(filter.OrderIds, item.OrderID) {
			result = append(result, item)
		}
	}
	slices.SortFunc(result, func(a, b orderitem.OrderItem) int { return cmp.Compare(a.ID, b.ID) })

	return result, nil
}

type paymentRepo struct {
	u *unitOfWork
}

func (r *paymentRepo) Insert(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	if err := ctxErr(ctx); err != nil {
		return payment.Payment{}, err
	}
	if _, ok := r.u.readOrder(p.OrderID); !ok {
		return payment.Payment{}, apperr.NotFound("order", p.OrderID)
	}

	if p.Status == payment.StatusSuccess {
		s := r.u.store
		s.mu.RLock()
		settled := s.hasSuccessfulPayment(p.OrderID)
		s.mu.RUnlock()
		for _, other := range r.u.payments {
			settled = settled || (other.OrderID == p.OrderID && other.Status == payment.StatusSuccess)
		}
		if settled {
			return payment.Payment{}, payment.Reject(p.OrderID, payment.ReasonAlreadySettled)
		}
	}

	p.ID = r.u.store.paymentSeq.Add(1)
	r.u.payments = append(r.u.payments, p)

	return p, r.u.autocommit()
}

func (r *paymentRepo) ListByOrder(ctx context.Context, orderID int64) ([]payment.Payment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	var result []payment.Payment
	for _, p := range append(r.u.store.Payments(), r.u.payments...) {
		if p.OrderID == orderID {
			result = append(result, p)
		}
	}

	return result, nil
}

// outboxRepo buffers Insert with the unit of work. The relay operations act
// on committed messages directly.
type outboxRepo struct {
	u *unitOfWork
}

func (r *outboxRepo) Insert(ctx context.Context, msg outbox.OutboxMessage) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	msg.ID = r.u.store.outboxSeq.Add(1)
	r.u.outbox = append(r.u.outbox, msg)

	return r.u.autocommit()
}

func (r *outboxRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]outbox.OutboxMessage, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	var result []outbox.OutboxMessage
	for _, msg := range r.u.store.OutboxMessages() {
		if !msg.NextRetryAt.After(now) && !msg.Exhausted() {
			result = append(result, msg)
		}
	}
	slices.SortStableFunc(result, func(a, b outbox.OutboxMessage) int {
		return a.NextRetryAt.Compare(b.NextRetryAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (r *outboxRepo) MarkPublished(ctx context.Context, id int64) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.outbox, id)

	return nil
}

func (r *outboxRepo) ScheduleRetry(ctx context.Context, id int64, attempt outbox.FailedAttempt) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.outbox[id]
	if !ok {
		return nil
	}
	msg.RetryCount = attempt.RetryCount
	msg.LastError = attempt.LastError
	msg.NextRetryAt = attempt.NextRetryAt
	msg.UpdatedAt = time.Now().UTC()
	s.outbox[id] = msg

	return nil
}
