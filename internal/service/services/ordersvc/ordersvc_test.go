package ordersvc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/canteen/internal/dal/memstore"
	"github.com/corray333/backend-labs/canteen/internal/mocks"
	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *memstore.Store
	svc     *OrderService
	thali   menuitem.MenuItem
	dosa    menuitem.MenuItem
	soldOut menuitem.MenuItem
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memstore.NewStore()

	return fixture{
		store:   store,
		svc:     MustNewOrderService(WithUnitOfWorkFactory(store.NewUnitOfWork)),
		thali:   store.AddMenuItem(menuitem.MenuItem{Name: "Veg Thali", PriceCents: 5000, Available: true}),
		dosa:    store.AddMenuItem(menuitem.MenuItem{Name: "Masala Dosa", PriceCents: 3000, Available: true}),
		soldOut: store.AddMenuItem(menuitem.MenuItem{Name: "Paneer Roll", PriceCents: 4500, Available: false}),
	}
}

func (f fixture) cart(lines ...order.Line) order.CreateOrderModel {
	return order.CreateOrderModel{UserID: 1, TimeSlot: "12:30-12:45", Lines: lines}
}

func TestCreateOrder_PricesFromMenu(t *testing.T) {
	f := newFixture(t)

	o, err := f.svc.CreateOrder(context.Background(), f.cart(
		order.Line{MenuItemID: f.thali.ID, Quantity: 2},
		order.Line{MenuItemID: f.dosa.ID, Quantity: 1},
	))
	require.NoError(t, err)

	assert.NotZero(t, o.ID)
	assert.Equal(t, money.Cents(13000), o.TotalCents)
	assert.Equal(t, order.StatusPending, o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, money.Cents(5000), o.Items[0].UnitPriceCents)
	assert.Equal(t, o.ID, o.Items[1].OrderID)

	stored := f.store.Orders()
	require.Len(t, stored, 1)
	require.NoError(t, stored[0].VerifyTotal())

	msgs := f.store.OutboxMessages()
	require.Len(t, msgs, 1)
	var evt outbox.OrderEvent
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &evt))
	assert.Equal(t, outbox.EventOrderCreated, evt.Type)
	assert.Equal(t, o.ID, evt.OrderID)
}

func TestCreateOrder_Rejections(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		model order.CreateOrderModel
		field string
	}{
		{name: "empty cart", model: f.cart(), field: "items"},
		{name: "zero quantity", model: f.cart(order.Line{MenuItemID: f.thali.ID, Quantity: 0}), field: "items[0].quantity"},
		{name: "unknown item", model: f.cart(order.Line{MenuItemID: 999, Quantity: 1}), field: "items[0].menuItemId"},
		{
			name: "unavailable item",
			model: f.cart(
				order.Line{MenuItemID: f.thali.ID, Quantity: 1},
				order.Line{MenuItemID: f.soldOut.ID, Quantity: 1},
			),
			field: "items[1].menuItemId",
		},
		{name: "no user", model: order.CreateOrderModel{TimeSlot: "12:30-12:45", Lines: []order.Line{{MenuItemID: f.thali.ID, Quantity: 1}}}, field: "userId"},
		{name: "blank slot", model: order.CreateOrderModel{UserID: 1, TimeSlot: "  ", Lines: []order.Line{{MenuItemID: f.thali.ID, Quantity: 1}}}, field: "timeSlot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(context.Background(), tt.model)
			require.ErrorIs(t, err, apperr.ErrValidation)

			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	assert.Empty(t, f.store.Orders())
	assert.Empty(t, f.store.OrderItems())
	assert.Empty(t, f.store.OutboxMessages())
}

func TestCreateOrder_MergesDuplicateItems(t *testing.T) {
	f := newFixture(t)

	o, err := f.svc.CreateOrder(context.Background(), f.cart(
		order.Line{MenuItemID: f.thali.ID, Quantity: 1},
		order.Line{MenuItemID: f.dosa.ID, Quantity: 1},
		order.Line{MenuItemID: f.thali.ID, Quantity: 2},
	))
	require.NoError(t, err)

	require.Len(t, o.Items, 2)
	assert.Equal(t, f.thali.ID, o.Items[0].MenuItemID)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, money.Cents(18000), o.TotalCents)
}

func TestCreateOrder_TotalSurvivesPriceChange(t *testing.T) {
	f := newFixture(t)

	o, err := f.svc.CreateOrder(context.Background(), f.cart(order.Line{MenuItemID: f.thali.ID, Quantity: 2}))
	require.NoError(t, err)

	require.NoError(t, f.store.SetMenuPrice(f.thali.ID, 9900))

	got, err := f.svc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(10000), got.TotalCents)
	assert.Equal(t, money.Cents(5000), got.Items[0].UnitPriceCents)
	assert.NoError(t, got.VerifyTotal())
}

func TestCreateOrder_RollsBackWhenItemsFail(t *testing.T) {
	work := mocks.NewMockUnitOfWork()
	svc := MustNewOrderService(WithUnitOfWorkFactory(func() iuow.IUnitOfWork { return work }))

	work.On("Begin", mock.Anything).Return(nil)
	work.On("Rollback", mock.Anything).Return(nil)
	work.Menu.On("Query", mock.Anything, mock.Anything).
		Return([]menuitem.MenuItem{{ID: 1, Name: "Veg Thali", PriceCents: 5000, Available: true}}, nil)
	work.Orders.On("Insert", mock.Anything, mock.AnythingOfType("order.Order")).
		Return(order.Order{ID: 10, TotalCents: 5000, Status: order.StatusPending}, nil)
	work.OrderItem.On("BulkInsert", mock.Anything, mock.Anything).
		Return(nil, apperr.Transient(assert.AnError))

	_, err := svc.CreateOrder(context.Background(), order.CreateOrderModel{
		UserID:   1,
		TimeSlot: "13:00-13:15",
		Lines:    []order.Line{{MenuItemID: 1, Quantity: 1}},
	})

	assert.ErrorIs(t, err, apperr.ErrTransient)
	work.AssertCalled(t, "Rollback", mock.Anything)
	work.AssertNotCalled(t, "Commit", mock.Anything)
	work.Outbox.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestGetOrder(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateOrder(context.Background(), f.cart(order.Line{MenuItemID: f.dosa.ID, Quantity: 3}))
	require.NoError(t, err)

	got, err := f.svc.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.TotalCents, got.TotalCents)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)

	_, err = f.svc.GetOrder(context.Background(), created.ID+100)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListMenu(t *testing.T) {
	f := newFixture(t)

	available, err := f.svc.ListMenu(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	all, err := f.svc.ListMenu(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
