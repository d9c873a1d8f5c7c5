package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/orderitem"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

var ErrTotalMismatch = errors.New("order total does not match its items")

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}

	return false
}

// Order represents a user's order for a pickup time slot.
type Order struct {
	ID         int64                 `json:"id"`
	UserID     int64                 `json:"userId"`
	TimeSlot   string                `json:"timeSlot"`
	TotalCents money.Cents           `json:"totalCents"`
	Status     Status                `json:"status"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
	Items      []orderitem.OrderItem `json:"items"`
}

// ItemsTotal sums the line totals of the order's items.
func (o *Order) ItemsTotal() (money.Cents, error) {
	var total money.Cents
	for _, item := range o.Items {
		line, err := item.LineTotal()
		if err != nil {
			return 0, err
		}
		if total, err = total.Add(line); err != nil {
			return 0, err
		}
	}

	return total, nil
}

// VerifyTotal checks that TotalCents equals the sum of the item lines.
func (o *Order) VerifyTotal() error {
	total, err := o.ItemsTotal()
	if err != nil {
		return err
	}
	if total != o.TotalCents {
		return fmt.Errorf("%w: items sum to %s, order says %s", ErrTotalMismatch, total, o.TotalCents)
	}

	return nil
}

// Line is one requested cart entry.
type Line struct {
	MenuItemID int64 `json:"menuItemId"`
	Quantity   int   `json:"quantity"`
}

// CreateOrderModel holds the input for placing an order.
type CreateOrderModel struct {
	UserID   int64  `json:"userId"`
	TimeSlot string `json:"timeSlot"`
	Lines    []Line `json:"items"`
}
