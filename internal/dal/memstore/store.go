// Package memstore keeps the canteen tables in process memory. A unit of work
// buffers its writes until Commit and holds per-order row locks taken by
// GetByIDForUpdate until Commit or Rollback, like a read committed
// transaction with SELECT ... FOR UPDATE.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
	"github.com/corray333/backend-labs/canteen/internal/service/models/review"
)

type Store struct {
	mu       sync.RWMutex
	menu     map[int64]menuitem.MenuItem
	orders   map[int64]order.Order
	items    []orderitem.OrderItem
	payments []payment.Payment
	reviews  []review.Review
	outbox   map[int64]outbox.OutboxMessage

	locksMu sync.Mutex
	locks   map[int64]chan struct{}

	menuSeq, orderSeq, itemSeq, paymentSeq, reviewSeq, outboxSeq atomic.Int64

	failMu    sync.Mutex
	commitErr error
}

func NewStore() *Store {
	return &Store{
		menu:   make(map[int64]menuitem.MenuItem),
		orders: make(map[int64]order.Order),
		outbox: make(map[int64]outbox.OutboxMessage),
		locks:  make(map[int64]chan struct{}),
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func (s *Store) NewUnitOfWork() iuow.IUnitOfWork {
	u := &unitOfWork{store: s}
	u.reset()

	return u
}

func (s *Store) Ping(context.Context) error {
	return nil
}

// lockOrder blocks until the row lock for id is free or ctx is done.
func (s *Store) lockOrder(ctx context.Context, id int64) error {
	s.locksMu.Lock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	s.locksMu.Unlock()

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return apperr.Transient(fmt.Errorf("failed to lock order %d: %w", id, ctx.Err()))
	}
}

func (s *Store) unlockOrder(id int64) {
	s.locksMu.Lock()
	ch := s.locks[id]
	s.locksMu.Unlock()
	<-ch
}

// FailNextCommit makes the next transactional commit fail with err.
func (s *Store) FailNextCommit(err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.commitErr = err
}

func (s *Store) takeCommitErr() error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	err := s.commitErr
	s.commitErr = nil

	return err
}

// AddMenuItem stores a catalog entry and returns it with its id.
func (s *Store) AddMenuItem(item menuitem.MenuItem) menuitem.MenuItem {
	item.ID = s.menuSeq.Add(1)
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu[item.ID] = item

	return item
}

// SetMenuPrice changes the current price of a catalog entry.
func (s *Store) SetMenuPrice(id int64, price money.Cents) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.menu[id]
	if !ok {
		return apperr.NotFound("menu item", id)
	}
	item.PriceCents = price
	s.menu[id] = item

	return nil
}

func (s *Store) AddReview(r review.Review) review.Review {
	r.ID = s.reviewSeq.Add(1)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, r)

	return r
}

// SetOrderStatus changes an order administratively, e.g. to cancel it.
func (s *Store) SetOrderStatus(id int64, status order.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return apperr.NotFound("order", id)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	s.orders[id] = o

	return nil
}

// Orders returns committed orders with their items, by id.
func (s *Store) Orders() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		for _, item := range s.items {
			if item.OrderID == o.ID {
				o.Items = append(o.Items, item)
			}
		}
		result = append(result, o)
	}
	slices.SortFunc(result, func(a, b order.Order) int { return cmp.Compare(a.ID, b.ID) })

	return result
}

func (s *Store) OrderItems() []orderitem.OrderItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.items)
}

func (s *Store) Payments() []payment.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.payments)
}

func (s *Store) OutboxMessages() []outbox.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]outbox.OutboxMessage, 0, len(s.outbox))
	for _, msg := range s.outbox {
		result = append(result, msg)
	}
	slices.SortFunc(result, func(a, b outbox.OutboxMessage) int { return cmp.Compare(a.ID, b.ID) })

	return result
}

// hasSuccessfulPayment must be called with mu held.
func (s *Store) hasSuccessfulPayment(orderID int64) bool {
	for _, p := range s.payments {
		if p.OrderID == orderID && p.Status == payment.StatusSuccess {
			return true
		}
	}

	return false
}
