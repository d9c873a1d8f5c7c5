package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/canteen/internal/dal/postgres"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
	"github.com/jackc/pgx/v5"
)

// successfulPaymentIndex allows one SUCCESS payment per order.
const successfulPaymentIndex = "payments_order_success_uidx"

type PaymentDal struct {
	Id             int64     `db:"id"`
	OrderId        int64     `db:"order_id"`
	AmountCents    int64     `db:"amount_cents"`
	Method         string    `db:"method"`
	Status         string    `db:"status"`
	TransactionRef string    `db:"transaction_ref"`
	CreatedAt      time.Time `db:"created_at"`
}

func (p *PaymentDal) ToModel() payment.Payment {
	return payment.Payment{
		ID:             p.Id,
		OrderID:        p.OrderId,
		AmountCents:    money.Cents(p.AmountCents),
		Method:         payment.Method(p.Method),
		Status:         payment.Status(p.Status),
		TransactionRef: p.TransactionRef,
		CreatedAt:      p.CreatedAt,
	}
}

type PostgresPaymentRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresPaymentRepository(conn postgres.GenericConn) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresPaymentRepository) Insert(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	sql, args, err := r.sb.
		Insert("payments").
		Columns("order_id", "amount_cents", "method", "status", "transaction_ref", "created_at").
		Values(p.OrderID, int64(p.AmountCents), string(p.Method), string(p.Status), p.TransactionRef, p.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return payment.Payment{}, fmt.Errorf("failed to build query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&p.ID); err != nil {
		if postgres.IsUniqueViolation(err, successfulPaymentIndex) {
			return payment.Payment{}, payment.Reject(p.OrderID, payment.ReasonAlreadySettled)
		}

		return payment.Payment{}, postgres.Wrap("failed to insert payment", err)
	}

	return p, nil
}

func (r *PostgresPaymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]payment.Payment, error) {
	sql, args, err := r.sb.
		Select("id", "order_id", "amount_cents", "method", "status", "transaction_ref", "created_at").
		From("payments").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.Wrap("failed to query payments", err)
	}

	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (payment.Payment, error) {
		var dal PaymentDal
		err := row.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.AmountCents,
			&dal.Method,
			&dal.Status,
			&dal.TransactionRef,
			&dal.CreatedAt,
		)

		return dal.ToModel(), err
	})
	if err != nil {
		return nil, postgres.Wrap("failed to scan payments", err)
	}

	return payments, nil
}
