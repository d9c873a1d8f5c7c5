package order

import (
	"testing"

	"github.com/corray333/backend-labs/canteen/internal/service/models/orderitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_VerifyTotal(t *testing.T) {
	o := Order{
		TotalCents: 13000,
		Items: []orderitem.OrderItem{
			{MenuItemID: 1, Quantity: 2, UnitPriceCents: 5000},
			{MenuItemID: 2, Quantity: 1, UnitPriceCents: 3000},
		},
	}
	require.NoError(t, o.VerifyTotal())

	o.TotalCents = 12999
	assert.ErrorIs(t, o.VerifyTotal(), ErrTotalMismatch)
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, Status("REFUNDED").Valid())
}
