package processpayment

import (
	"context"
	"errors"
	"net/http"

	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/request"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/response"
	"github.com/shopspring/decimal"
)

type service interface {
	ProcessPayment(ctx context.Context, model payment.ProcessPaymentModel) (payment.Payment, error)
}

// processPaymentRequest carries the amount either in major units ("130.00"
// or 130.00) or in cents. Exactly one of them must be set.
type processPaymentRequest struct {
	OrderID     int64            `json:"orderId"     validate:"gt=0"`
	Amount      *decimal.Decimal `json:"amount"`
	AmountCents *int64           `json:"amountCents"`
	Method      string           `json:"method"      validate:"required"`
}

func (r *processPaymentRequest) toModel() (payment.ProcessPaymentModel, error) {
	var amount money.Cents
	switch {
	case r.Amount != nil && r.AmountCents != nil:
		return payment.ProcessPaymentModel{}, apperr.Validation("amount", "set either amount or amountCents, not both")
	case r.Amount != nil:
		cents, err := money.FromDecimal(*r.Amount)
		if err != nil {
			return payment.ProcessPaymentModel{}, amountError(err)
		}
		amount = cents
	case r.AmountCents != nil:
		if *r.AmountCents < 0 {
			return payment.ProcessPaymentModel{}, apperr.Validation("amountCents", "must not be negative")
		}
		amount = money.Cents(*r.AmountCents)
	default:
		return payment.ProcessPaymentModel{}, apperr.Validation("amount", "is required")
	}

	method, err := payment.ParseMethod(r.Method)
	if err != nil {
		return payment.ProcessPaymentModel{}, err
	}

	return payment.ProcessPaymentModel{OrderID: r.OrderID, AmountCents: amount, Method: method}, nil
}

func amountError(err error) error {
	switch {
	case errors.Is(err, money.ErrFractionalCents):
		return apperr.Validation("amount", "must have at most two decimal places")
	case errors.Is(err, money.ErrNegative):
		return apperr.Validation("amount", "must not be negative")
	}

	return apperr.Validation("amount", "%v", err)
}

type processPaymentResponse struct {
	Success       bool           `json:"success"`
	TransactionID string         `json:"transactionId"`
	PaymentID     int64          `json:"paymentId"`
	OrderID       int64          `json:"orderId"`
	Amount        string         `json:"amount"`
	Method        payment.Method `json:"method"`
}

// ProcessPayment settles an order.
func ProcessPayment(w http.ResponseWriter, r *http.Request, service service) {
	var req processPaymentRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)

		return
	}
	model, err := req.toModel()
	if err != nil {
		response.WriteError(w, r, err)

		return
	}

	p, err := service.ProcessPayment(r.Context(), model)
	if err != nil {
		response.WriteError(w, r, err)

		return
	}

	response.WriteJSON(w, r, http.StatusOK, processPaymentResponse{
		Success:       true,
		TransactionID: p.TransactionRef,
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		Amount:        p.AmountCents.String(),
		Method:        p.Method,
	})
}
