package mocks

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/imenurepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ipaymentrepo"
	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork hands out the embedded repository mocks.
type MockUnitOfWork struct {
	mock.Mock
	Menu      *MockMenuRepository
	Orders    *MockOrderRepository
	OrderItem *MockOrderItemRepository
	Payment   *MockPaymentRepository
	Outbox    *MockOutboxRepository
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Menu:      &MockMenuRepository{},
		Orders:    &MockOrderRepository{},
		OrderItem: &MockOrderItemRepository{},
		Payment:   &MockPaymentRepository{},
		Outbox:    &MockOutboxRepository{},
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) MenuRepository() imenurepo.IMenuRepository {
	return m.Menu
}

func (m *MockUnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return m.Orders
}

func (m *MockUnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return m.OrderItem
}

func (m *MockUnitOfWork) PaymentRepository() ipaymentrepo.IPaymentRepository {
	return m.Payment
}

func (m *MockUnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return m.Outbox
}

type MockMenuRepository struct {
	mock.Mock
}

func (m *MockMenuRepository) Query(ctx context.Context, filter *menuitem.QueryMenuItemsModel) ([]menuitem.MenuItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]menuitem.MenuItem), args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (order.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (order.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(order.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id int64, from, to order.Status) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

type MockOrderItemRepository struct {
	mock.Mock
}

func (m *MockOrderItemRepository) BulkInsert(ctx context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]orderitem.OrderItem), args.Error(1)
}

func (m *MockOrderItemRepository) Query(ctx context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]orderitem.OrderItem), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Insert(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]payment.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Insert(ctx context.Context, msg outbox.OutboxMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockOutboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]outbox.OutboxMessage, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outbox.OutboxMessage), args.Error(1)
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) ScheduleRetry(ctx context.Context, id int64, attempt outbox.FailedAttempt) error {
	args := m.Called(ctx, id, attempt)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}
