package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/canteen/internal/dal/postgres"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
)

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id             int64     `db:"id"`
	OrderId        int64     `db:"order_id"`
	MenuItemId     int64     `db:"menu_item_id"`
	Quantity       int       `db:"quantity"`
	UnitPriceCents int64     `db:"unit_price_cents"`
	CreatedAt      time.Time `db:"created_at"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() orderitem.OrderItem {
	return orderitem.OrderItem{
		ID:             oi.Id,
		OrderID:        oi.OrderId,
		MenuItemID:     oi.MenuItemId,
		Quantity:       oi.Quantity,
		UnitPriceCents: money.Cents(oi.UnitPriceCents),
		CreatedAt:      oi.CreatedAt,
	}
}

// OrderItemDalFromModel converts service layer OrderItem model to OrderItemDal.
func OrderItemDalFromModel(oi *orderitem.OrderItem) *OrderItemDal {
	return &OrderItemDal{
		Id:             oi.ID,
		OrderId:        oi.OrderID,
		MenuItemId:     oi.MenuItemID,
		Quantity:       oi.Quantity,
		UnitPriceCents: int64(oi.UnitPriceCents),
		CreatedAt:      oi.CreatedAt,
	}
}

var orderItemColumns = []string{
	"id",
	"order_id",
	"menu_item_id",
	"quantity",
	"unit_price_cents",
	"created_at",
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn postgres.GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts all items in one statement and returns them with IDs,
// in input order.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	query := r.sb.
		Insert("order_items").
		Columns("order_id", "menu_item_id", "quantity", "unit_price_cents", "created_at")
	for i := range orderItems {
		dal := OrderItemDalFromModel(&orderItems[i])
		query = query.Values(dal.OrderId, dal.MenuItemId, dal.Quantity, dal.UnitPriceCents, dal.CreatedAt)
	}

	sql, args, err := query.Suffix("RETURNING id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.Wrap("failed to bulk insert order items", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, 0, len(orderItems))
	for rows.Next() {
		if len(result) == len(orderItems) {
			return nil, fmt.Errorf("bulk insert returned more rows than inserted")
		}
		item := orderItems[len(result)]
		if err := rows.Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("failed to scan order item id: %w", err)
		}
		result = append(result, item)
	}

	if err = rows.Err(); err != nil {
		return nil, postgres.Wrap("rows iteration error", err)
	}
	if len(result) != len(orderItems) {
		return nil, fmt.Errorf("bulk insert returned %d ids for %d items", len(result), len(orderItems))
	}

	return result, nil
}

// Query retrieves order items based on filter criteria.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	query := r.sb.
		Select(orderItemColumns...).
		From("order_items").
		OrderBy("id")

	if len(filter.OrderIds) > 0 {
		query = query.Where(sq.Eq{"order_id": filter.OrderIds})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.Wrap("failed to query order items", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (orderitem.OrderItem, error) {
		var dal OrderItemDal
		err := row.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.MenuItemId,
			&dal.Quantity,
			&dal.UnitPriceCents,
			&dal.CreatedAt,
		)

		return dal.ToModel(), err
	})
	if err != nil {
		return nil, postgres.Wrap("failed to scan order items", err)
	}

	return items, nil
}
