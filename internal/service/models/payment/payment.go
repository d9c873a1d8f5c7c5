package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
)

type Method string

const (
	MethodCash   Method = "CASH"
	MethodCard   Method = "CARD"
	MethodUPI    Method = "UPI"
	MethodWallet Method = "WALLET"
)

// ParseMethod accepts a method name in any letter case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case MethodCash, MethodCard, MethodUPI, MethodWallet:
		return m, nil
	}

	return "", apperr.Validation("method", "unsupported payment method %q", s)
}

type Status string

const StatusSuccess Status = "SUCCESS"

// Payment is a settlement recorded against an order.
type Payment struct {
	ID             int64       `json:"id"`
	OrderID        int64       `json:"orderId"`
	AmountCents    money.Cents `json:"amountCents"`
	Method         Method      `json:"method"`
	Status         Status      `json:"status"`
	TransactionRef string      `json:"transactionRef"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// ProcessPaymentModel holds the input for settling an order.
type ProcessPaymentModel struct {
	OrderID     int64
	AmountCents money.Cents
	Method      Method
}

type Reason string

const (
	ReasonOrderNotFound  Reason = "ORDER_NOT_FOUND"
	ReasonAlreadySettled Reason = "ALREADY_SETTLED"
	ReasonCancelled      Reason = "CANCELLED"
	ReasonAmountMismatch Reason = "AMOUNT_MISMATCH"
)

// Error is a business rejection of a payment attempt. Nothing is persisted
// when it is returned.
type Error struct {
	Reason  Reason
	OrderID int64
}

func Reject(orderID int64, reason Reason) *Error {
	return &Error{Reason: reason, OrderID: orderID}
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonOrderNotFound:
		return fmt.Sprintf("order %d not found", e.OrderID)
	case ReasonAlreadySettled:
		return fmt.Sprintf("order %d is already paid", e.OrderID)
	case ReasonCancelled:
		return fmt.Sprintf("order %d is cancelled", e.OrderID)
	case ReasonAmountMismatch:
		return fmt.Sprintf("payment amount does not match the total of order %d", e.OrderID)
	}

	return fmt.Sprintf("payment for order %d rejected: %s", e.OrderID, e.Reason)
}

func (e *Error) Unwrap() error {
	if e.Reason == ReasonOrderNotFound {
		return apperr.ErrNotFound
	}

	return apperr.ErrConflict
}

// ReasonOf extracts the rejection reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Reason, true
	}

	return "", false
}
