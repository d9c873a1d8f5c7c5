package ordersvc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/canteen/internal/dal/postgres"
	"github.com/corray333/backend-labs/canteen/internal/dal/uow"
	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxTimeSlotLength = 32

// OrderService builds priced orders from carts.
type OrderService struct {
	newUOW  func() iuow.IUnitOfWork
	timeout time.Duration
	events  outbox.Target
	now     func() time.Time
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		timeout: 5 * time.Second,
		events:  outbox.Target{Queue: "canteen.order.events", MaxRetries: 5},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newUOW == nil {
		panic("ordersvc: no storage configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.newUOW = func() iuow.IUnitOfWork { return uow.NewUnitOfWork(pgClient) }
	}
}

// WithUnitOfWorkFactory sets an arbitrary storage backend.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(newUOW func() iuow.IUnitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = newUOW
	}
}

// WithOperationTimeout bounds every store interaction of one call.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOperationTimeout(d time.Duration) option {
	return func(s *OrderService) {
		s.timeout = d
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventTarget(target outbox.Target) option {
	return func(s *OrderService) {
		s.events = target
	}
}

// CreateOrder prices the cart against the current menu and stores a PENDING
// order with its items in one transaction. Repeated menu items are merged.
func (s *OrderService) CreateOrder(ctx context.Context, model order.CreateOrderModel) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	o, err := s.createOrder(ctx, model)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return order.Order{}, err
	}
	span.SetAttributes(attribute.Int64("order.id", o.ID), attribute.Int64("order.total_cents", int64(o.TotalCents)))

	slog.InfoContext(ctx, "Order created",
		"order_id", o.ID,
		"user_id", o.UserID,
		"total", o.TotalCents.String(),
		"items", len(o.Items),
	)

	return o, nil
}

func (s *OrderService) createOrder(ctx context.Context, model order.CreateOrderModel) (order.Order, error) {
	lines, err := validateCreateOrder(model)
	if err != nil {
		return order.Order{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, apperr.Classify(err)
	}
	defer func() {
		if err := work.Rollback(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "Failed to rollback order transaction", "error", err)
		}
	}()

	ids := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = line.MenuItemID
	}
	menu, err := work.MenuRepository().Query(ctx, &menuitem.QueryMenuItemsModel{Ids: ids})
	if err != nil {
		return order.Order{}, apperr.Classify(err)
	}

	now := s.now()
	o, err := priceOrder(lines, menu)
	if err != nil {
		return order.Order{}, err
	}
	o.UserID = model.UserID
	o.TimeSlot = strings.TrimSpace(model.TimeSlot)
	o.Status = order.StatusPending
	o.CreatedAt = now
	o.UpdatedAt = now
	if err := o.VerifyTotal(); err != nil {
		return order.Order{}, err
	}

	items := o.Items
	if o, err = work.OrderRepository().Insert(ctx, o); err != nil {
		return order.Order{}, apperr.Classify(err)
	}
	for i := range items {
		items[i].OrderID = o.ID
		items[i].CreatedAt = now
	}
	if o.Items, err = work.OrderItemRepository().BulkInsert(ctx, items); err != nil {
		return order.Order{}, apperr.Classify(err)
	}

	msg, err := outbox.NewOrderEventMessage(s.events, outbox.OrderEvent{
		Type:       outbox.EventOrderCreated,
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalCents: o.TotalCents,
		Status:     string(o.Status),
		OccurredAt: now,
	})
	if err != nil {
		return order.Order{}, err
	}
	if err := work.OutboxRepository().Insert(ctx, msg); err != nil {
		return order.Order{}, apperr.Classify(err)
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, apperr.Classify(err)
	}

	return o, nil
}

// validateCreateOrder checks the request shape and merges repeated menu
// items, keeping first-seen order.
func validateCreateOrder(model order.CreateOrderModel) ([]order.Line, error) {
	if model.UserID <= 0 {
		return nil, apperr.Validation("userId", "must be positive")
	}
	slot := strings.TrimSpace(model.TimeSlot)
	if slot == "" {
		return nil, apperr.Validation("timeSlot", "must not be blank")
	}
	if len(slot) > maxTimeSlotLength {
		return nil, apperr.Validation("timeSlot", "must be at most %d characters", maxTimeSlotLength)
	}
	if len(model.Lines) == 0 {
		return nil, apperr.Validation("items", "must not be empty")
	}

	merged := make([]order.Line, 0, len(model.Lines))
	index := make(map[int64]int, len(model.Lines))
	for i, line := range model.Lines {
		if line.MenuItemID <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].menuItemId", i), "must be positive")
		}
		if line.Quantity < 1 {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if j, ok := index[line.MenuItemID]; ok {
			merged[j].Quantity += line.Quantity
			if merged[j].Quantity < line.Quantity {
				return nil, apperr.Validation(fmt.Sprintf("items[%d].quantity", i), "is too large")
			}

			continue
		}
		index[line.MenuItemID] = len(merged)
		merged = append(merged, line)
	}

	return merged, nil
}

// priceOrder copies current menu prices into order items and sums them.
func priceOrder(lines []order.Line, menu []menuitem.MenuItem) (order.Order, error) {
	byID := make(map[int64]menuitem.MenuItem, len(menu))
	for _, item := range menu {
		byID[item.ID] = item
	}

	var o order.Order
	for i, line := range lines {
		field := fmt.Sprintf("items[%d].menuItemId", i)
		item, ok := byID[line.MenuItemID]
		if !ok {
			return order.Order{}, apperr.Validation(field, "menu item %d does not exist", line.MenuItemID)
		}
		if !item.Available {
			return order.Order{}, apperr.Validation(field, "menu item %d is not available", line.MenuItemID)
		}

		lineTotal, err := item.PriceCents.Mul(line.Quantity)
		if err != nil {
			return order.Order{}, apperr.Validation(fmt.Sprintf("items[%d].quantity", i), "line total %s", err)
		}
		if o.TotalCents, err = o.TotalCents.Add(lineTotal); err != nil {
			return order.Order{}, apperr.Validation("items", "order total %s", err)
		}
		o.Items = append(o.Items, orderitem.OrderItem{
			MenuItemID:     item.ID,
			Quantity:       line.Quantity,
			UnitPriceCents: item.PriceCents,
		})
	}

	return o, nil
}

// GetOrder returns the order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.GetOrder")
	defer span.End()

	if id <= 0 {
		return order.Order{}, apperr.Validation("id", "must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	work := s.newUOW()

	o, err := work.OrderRepository().GetByID(ctx, id)
	if err != nil {
		return order.Order{}, apperr.Classify(err)
	}

	items, err := work.OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{OrderIds: []int64{id}})
	if err != nil {
		return order.Order{}, apperr.Classify(err)
	}
	o.Items = items

	return o, nil
}

// ListMenu returns the menu, optionally only the items that can be ordered.
func (s *OrderService) ListMenu(ctx context.Context, onlyAvailable bool) ([]menuitem.MenuItem, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.ListMenu")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, err := s.newUOW().MenuRepository().Query(ctx, &menuitem.QueryMenuItemsModel{OnlyAvailable: onlyAvailable})
	if err != nil {
		return nil, apperr.Classify(err)
	}
	if items == nil {
		items = []menuitem.MenuItem{}
	}

	return items, nil
}

