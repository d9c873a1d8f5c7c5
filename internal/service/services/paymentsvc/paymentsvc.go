package paymentsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/canteen/internal/dal/postgres"
	"github.com/corray333/backend-labs/canteen/internal/dal/uow"
	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PaymentService settles PENDING orders exactly once.
type PaymentService struct {
	newUOW  func() iuow.IUnitOfWork
	timeout time.Duration
	events  outbox.Target
	now     func() time.Time
	newRef  func() string
}

type option func(*PaymentService)

func MustNewPaymentService(opts ...option) *PaymentService {
	s := &PaymentService{
		timeout: 5 * time.Second,
		events:  outbox.Target{Queue: "canteen.order.events", MaxRetries: 5},
		now:     func() time.Time { return time.Now().UTC() },
		newRef:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newUOW == nil {
		panic("paymentsvc: no storage configured")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *PaymentService) {
		s.newUOW = func() iuow.IUnitOfWork { return uow.NewUnitOfWork(pgClient) }
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(newUOW func() iuow.IUnitOfWork) option {
	return func(s *PaymentService) {
		s.newUOW = newUOW
	}
}

// WithOperationTimeout bounds the whole payment transaction, including the
// wait for the order row lock.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOperationTimeout(d time.Duration) option {
	return func(s *PaymentService) {
		s.timeout = d
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventTarget(target outbox.Target) option {
	return func(s *PaymentService) {
		s.events = target
	}
}

// ProcessPayment records a successful payment and marks the order PAID. On
// any error nothing is persisted. Business rejections are *payment.Error.
func (s *PaymentService) ProcessPayment(
	ctx context.Context,
	model payment.ProcessPaymentModel,
) (payment.Payment, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "PaymentService.ProcessPayment")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.id", model.OrderID),
		attribute.String("payment.method", string(model.Method)),
	)

	p, err := s.processPayment(ctx, model)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if reason, ok := payment.ReasonOf(err); ok {
			slog.WarnContext(ctx, "Payment rejected", "order_id", model.OrderID, "reason", reason)
		}

		return payment.Payment{}, err
	}

	slog.InfoContext(ctx, "Payment processed",
		"order_id", p.OrderID,
		"payment_id", p.ID,
		"transaction_ref", p.TransactionRef,
		"amount", p.AmountCents.String(),
		"method", p.Method,
	)

	return p, nil
}

func (s *PaymentService) processPayment(
	ctx context.Context,
	model payment.ProcessPaymentModel,
) (payment.Payment, error) {
	if model.OrderID <= 0 {
		return payment.Payment{}, apperr.Validation("orderId", "must be positive")
	}
	if model.AmountCents < 0 {
		return payment.Payment{}, apperr.Validation("amount", "must not be negative")
	}
	method, err := payment.ParseMethod(string(model.Method))
	if err != nil {
		return payment.Payment{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return payment.Payment{}, apperr.Classify(err)
	}
	defer func() {
		if err := work.Rollback(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "Failed to rollback payment transaction", "error", err)
		}
	}()

	o, err := work.OrderRepository().GetByIDForUpdate(ctx, model.OrderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return payment.Payment{}, payment.Reject(model.OrderID, payment.ReasonOrderNotFound)
		}

		return payment.Payment{}, apperr.Classify(err)
	}

	switch o.Status {
	case order.StatusPending:
	case order.StatusPaid:
		return payment.Payment{}, payment.Reject(o.ID, payment.ReasonAlreadySettled)
	case order.StatusCancelled:
		return payment.Payment{}, payment.Reject(o.ID, payment.ReasonCancelled)
	default:
		return payment.Payment{}, fmt.Errorf("order %d has unknown status %q", o.ID, o.Status)
	}

	if model.AmountCents != o.TotalCents {
		slog.WarnContext(ctx, "Payment amount mismatch",
			"order_id", o.ID,
			"expected", o.TotalCents.String(),
			"received", model.AmountCents.String(),
		)

		return payment.Payment{}, payment.Reject(o.ID, payment.ReasonAmountMismatch)
	}

	now := s.now()
	p, err := work.PaymentRepository().Insert(ctx, payment.Payment{
		OrderID:        o.ID,
		AmountCents:    o.TotalCents,
		Method:         method,
		Status:         payment.StatusSuccess,
		TransactionRef: s.newRef(),
		CreatedAt:      now,
	})
	if err != nil {
		return payment.Payment{}, apperr.Classify(err)
	}

	updated, err := work.OrderRepository().UpdateStatus(ctx, o.ID, order.StatusPending, order.StatusPaid)
	if err != nil {
		return payment.Payment{}, apperr.Classify(err)
	}
	if !updated {
		return payment.Payment{}, payment.Reject(o.ID, payment.ReasonAlreadySettled)
	}

	msg, err := outbox.NewOrderEventMessage(s.events, outbox.OrderEvent{
		Type:           outbox.EventOrderPaid,
		OrderID:        o.ID,
		UserID:         o.UserID,
		TotalCents:     o.TotalCents,
		Status:         string(order.StatusPaid),
		TransactionRef: p.TransactionRef,
		OccurredAt:     now,
	})
	if err != nil {
		return payment.Payment{}, err
	}
	if err := work.OutboxRepository().Insert(ctx, msg); err != nil {
		return payment.Payment{}, apperr.Classify(err)
	}

	if err := work.Commit(ctx); err != nil {
		return payment.Payment{}, apperr.Classify(err)
	}

	return p, nil
}
