package reportsvc

import (
	"context"
	"testing"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/dal/memstore"
	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/review"
	"github.com/corray333/backend-labs/canteen/internal/service/services/ordersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *memstore.Store
	svc   *ReportService
	thali menuitem.MenuItem
	dosa  menuitem.MenuItem
}

// newFixture stores three orders: 2 thali + 1 dosa (130.00), 3 dosa (90.00)
// and a cancelled 5 thali (250.00).
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.NewStore()
	f := fixture{
		store: store,
		svc:   MustNewReportService(WithRepository(store.ReportRepository())),
		thali: store.AddMenuItem(menuitem.MenuItem{Name: "Veg Thali", PriceCents: 5000, Available: true}),
		dosa:  store.AddMenuItem(menuitem.MenuItem{Name: "Masala Dosa", PriceCents: 3000, Available: true}),
	}

	orders := ordersvc.MustNewOrderService(ordersvc.WithUnitOfWorkFactory(store.NewUnitOfWork))
	place := func(lines ...order.Line) order.Order {
		o, err := orders.CreateOrder(ctx, order.CreateOrderModel{UserID: 1, TimeSlot: "12:30-12:45", Lines: lines})
		require.NoError(t, err)

		return o
	}
	place(order.Line{MenuItemID: f.thali.ID, Quantity: 2}, order.Line{MenuItemID: f.dosa.ID, Quantity: 1})
	place(order.Line{MenuItemID: f.dosa.ID, Quantity: 3})
	cancelled := place(order.Line{MenuItemID: f.thali.ID, Quantity: 5})
	require.NoError(t, store.SetOrderStatus(cancelled.ID, order.StatusCancelled))

	return f
}

func TestDailyRevenue_ExcludesCancelled(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.DailyRevenue(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.OrderCount)
	assert.Equal(t, money.Cents(22000), r.RevenueCents)

	r, err = f.svc.DailyRevenue(context.Background(), time.Now().UTC().AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Zero(t, r.OrderCount)
}

func TestMonthlyRevenue(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()

	r, err := f.svc.MonthlyRevenue(context.Background(), now.Year(), now.Month())
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.OrderCount)
	assert.Equal(t, money.Cents(22000), r.RevenueCents)

	_, err = f.svc.MonthlyRevenue(context.Background(), now.Year(), 13)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPopularItems(t *testing.T) {
	f := newFixture(t)

	items, err := f.svc.PopularItems(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, f.dosa.ID, items[0].MenuItemID)
	assert.Equal(t, "Masala Dosa", items[0].Name)
	assert.Equal(t, int64(4), items[0].TotalQuantity)
	assert.Equal(t, int64(2), items[0].OrderCount)
	assert.Equal(t, int64(2), items[1].TotalQuantity, "cancelled order does not count")

	items, err = f.svc.PopularItems(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.svc.PopularItems(context.Background(), MaxPopularLimit+1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRatingStats(t *testing.T) {
	f := newFixture(t)
	for _, rating := range []int{5, 4, 4, 1} {
		f.store.AddReview(review.Review{UserID: 1, MenuItemID: f.thali.ID, Rating: rating})
	}

	stats, err := f.svc.RatingStats(context.Background(), f.thali.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.ReviewCount)
	assert.InDelta(t, 3.5, stats.Average, 1e-9)
	assert.Equal(t, map[int]int64{1: 1, 2: 0, 3: 0, 4: 2, 5: 1}, stats.Distribution)

	empty, err := f.svc.RatingStats(context.Background(), f.dosa.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.ReviewCount)
	assert.Zero(t, empty.Average)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.Dashboard(context.Background(), time.Time{}, 5)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(22000), d.Today.RevenueCents)
	assert.Equal(t, money.Cents(22000), d.ThisMonth.RevenueCents)
	assert.Len(t, d.PopularItems, 2)
}
