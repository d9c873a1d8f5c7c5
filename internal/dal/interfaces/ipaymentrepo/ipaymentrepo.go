package ipaymentrepo

import (
	"context"

	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
)

// IPaymentRepository is an interface for payment repository. Payments are
// append-only.
type IPaymentRepository interface {
	// Insert fails with a payment.Error of reason ALREADY_SETTLED when the
	// order already has a successful payment.
	Insert(ctx context.Context, p payment.Payment) (payment.Payment, error)
	ListByOrder(ctx context.Context, orderID int64) ([]payment.Payment, error)
}
