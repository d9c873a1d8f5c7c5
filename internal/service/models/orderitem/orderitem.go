package orderitem

import (
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
)

// OrderItem represents a line within an order. UnitPriceCents is the menu
// price captured when the order was placed.
type OrderItem struct {
	ID             int64       `json:"id"`
	OrderID        int64       `json:"orderId"`
	MenuItemID     int64       `json:"menuItemId"`
	Quantity       int         `json:"quantity"`
	UnitPriceCents money.Cents `json:"unitPriceCents"`
	CreatedAt      time.Time   `json:"createdAt"`
}

func (i OrderItem) LineTotal() (money.Cents, error) {
	return i.UnitPriceCents.Mul(i.Quantity)
}

// QueryOrderItemsModel represents filter parameters for querying order items.
type QueryOrderItemsModel struct {
	OrderIds []int64 `json:"orderIds,omitempty"`
}
