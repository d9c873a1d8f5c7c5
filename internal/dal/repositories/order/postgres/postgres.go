package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/canteen/internal/dal/postgres"
	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/jackc/pgx/v5"
)

// OrderDal represents order data access layer model
type OrderDal struct {
	Id         int64     `db:"id"`
	UserId     int64     `db:"user_id"`
	TimeSlot   string    `db:"time_slot"`
	TotalCents int64     `db:"total_cents"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() (order.Order, error) {
	status := order.Status(o.Status)
	if !status.Valid() {
		return order.Order{}, fmt.Errorf("unknown order status %q", o.Status)
	}

	return order.Order{
		ID:         o.Id,
		UserID:     o.UserId,
		TimeSlot:   o.TimeSlot,
		TotalCents: money.Cents(o.TotalCents),
		Status:     status,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}, nil
}

// OrderDalFromModel converts service layer Order model to OrderDal
func OrderDalFromModel(o *order.Order) *OrderDal {
	return &OrderDal{
		Id:         o.ID,
		UserId:     o.UserID,
		TimeSlot:   o.TimeSlot,
		TotalCents: int64(o.TotalCents),
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

var orderColumns = []string{
	"id",
	"user_id",
	"time_slot",
	"total_cents",
	"status",
	"created_at",
	"updated_at",
}

type PostgresOrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores the order header and returns it with the generated id.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	dal := OrderDalFromModel(&o)

	sql, args, err := r.sb.
		Insert("orders").
		Columns("user_id", "time_slot", "total_cents", "status", "created_at", "updated_at").
		Values(dal.UserId, dal.TimeSlot, dal.TotalCents, dal.Status, dal.CreatedAt, dal.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&o.ID); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return order.Order{}, apperr.Validation("userId", "user %d does not exist", o.UserID)
		}

		return order.Order{}, postgres.Wrap("failed to insert order", err)
	}

	return o, nil
}

func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (order.Order, error) {
	return r.get(ctx, id, false)
}

func (r *PostgresOrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (order.Order, error) {
	return r.get(ctx, id, true)
}

func (r *PostgresOrderRepository) get(ctx context.Context, id int64, lock bool) (order.Order, error) {
	query := r.sb.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id})
	if lock {
		query = query.Suffix("FOR UPDATE")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build query: %w", err)
	}

	var dal OrderDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&dal.Id,
		&dal.UserId,
		&dal.TimeSlot,
		&dal.TotalCents,
		&dal.Status,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, apperr.NotFound("order", id)
	}
	if err != nil {
		return order.Order{}, postgres.Wrap("failed to query order", err)
	}

	return dal.ToModel()
}

// UpdateStatus only touches the row while it is still in status from.
func (r *PostgresOrderRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	from, to order.Status,
) (bool, error) {
	sql, args, err := r.sb.
		Update("orders").
		Set("status", string(to)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "status": string(from)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return false, postgres.Wrap("failed to update order status", err)
	}

	return tag.RowsAffected() == 1, nil
}
