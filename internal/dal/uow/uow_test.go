package uow_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/config"
	"github.com/corray333/backend-labs/canteen/internal/dal/postgres"
	reportrepo "github.com/corray333/backend-labs/canteen/internal/dal/repositories/report/postgres"
	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
	"github.com/corray333/backend-labs/canteen/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/canteen/internal/service/services/paymentsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClient connects to the database named by CANTEEN_TEST_PG_DSN and resets
// it. The test is skipped when the variable is unset.
func newClient(t *testing.T) *postgres.Client {
	t.Helper()
	dsn := os.Getenv("CANTEEN_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("CANTEEN_TEST_PG_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := postgres.NewClient(ctx, config.PostgresConfig{
		DSN:            dsn,
		MaxConns:       20,
		ConnectRetries: 3,
		MigrationsPath: "../../../migrations",
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	_, err = client.Pool().Exec(ctx,
		"TRUNCATE outbox, payments, order_items, orders, reviews RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	return client
}

func menuItem(t *testing.T, client *postgres.Client, name string) menuitem.MenuItem {
	t.Helper()
	var item menuitem.MenuItem
	var price int64
	err := client.Pool().QueryRow(context.Background(),
		"SELECT id, price_cents FROM menu_items WHERE name = $1", name).Scan(&item.ID, &price)
	require.NoError(t, err)
	item.PriceCents = money.Cents(price)

	return item
}

func userID(t *testing.T, client *postgres.Client) int64 {
	t.Helper()
	var id int64
	require.NoError(t, client.Pool().QueryRow(context.Background(), "SELECT min(id) FROM users").Scan(&id))

	return id
}

func TestPostgres_OrderPaymentConsistency(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	thali := menuItem(t, client, "Veg Thali")
	dosa := menuItem(t, client, "Masala Dosa")

	orders := ordersvc.MustNewOrderService(ordersvc.WithPostgresClient(client))
	payments := paymentsvc.MustNewPaymentService(paymentsvc.WithPostgresClient(client))

	o, err := orders.CreateOrder(ctx, order.CreateOrderModel{
		UserID:   userID(t, client),
		TimeSlot: "12:30-12:45",
		Lines:    []order.Line{{MenuItemID: thali.ID, Quantity: 2}, {MenuItemID: dosa.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, money.Cents(13000), o.TotalCents)

	_, err = payments.ProcessPayment(ctx, payment.ProcessPaymentModel{OrderID: o.ID, AmountCents: 12999, Method: payment.MethodCard})
	reason, _ := payment.ReasonOf(err)
	assert.Equal(t, payment.ReasonAmountMismatch, reason)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		settled   int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := payments.ProcessPayment(ctx, payment.ProcessPaymentModel{
				OrderID: o.ID, AmountCents: 13000, Method: payment.MethodUPI,
			})
			mu.Lock()
			defer mu.Unlock()
			var pe *payment.Error
			switch {
			case err == nil:
				successes++
			case errors.As(err, &pe) && pe.Reason == payment.ReasonAlreadySettled:
				settled++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, settled)

	var count int
	require.NoError(t, client.Pool().QueryRow(ctx,
		"SELECT count(*) FROM payments WHERE order_id = $1", o.ID).Scan(&count))
	assert.Equal(t, 1, count)

	paid, err := orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, paid.Status)
	assert.Len(t, paid.Items, 2)

	var events int
	require.NoError(t, client.Pool().QueryRow(ctx, "SELECT count(*) FROM outbox").Scan(&events))
	assert.Equal(t, 2, events)

	daily, err := reportrepo.NewPostgresReportRepository(client.Pool()).DailyRevenue(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), daily.OrderCount)
	assert.Equal(t, money.Cents(13000), daily.RevenueCents)
}

func TestPostgres_UnknownUserIsValidationError(t *testing.T) {
	client := newClient(t)
	thali := menuItem(t, client, "Veg Thali")

	orders := ordersvc.MustNewOrderService(ordersvc.WithPostgresClient(client))
	_, err := orders.CreateOrder(context.Background(), order.CreateOrderModel{
		UserID:   1 << 40,
		TimeSlot: "13:00",
		Lines:    []order.Line{{MenuItemID: thali.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "userId")
}
