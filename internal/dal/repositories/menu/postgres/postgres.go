package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/canteen/internal/dal/postgres"
	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/jackc/pgx/v5"
)

type MenuItemDal struct {
	Id          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	PriceCents  int64     `db:"price_cents"`
	Available   bool      `db:"available"`
	CreatedAt   time.Time `db:"created_at"`
}

func (m *MenuItemDal) ToModel() menuitem.MenuItem {
	return menuitem.MenuItem{
		ID:          m.Id,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		PriceCents:  money.Cents(m.PriceCents),
		Available:   m.Available,
		CreatedAt:   m.CreatedAt,
	}
}

// PostgresMenuRepository reads the menu catalog.
type PostgresMenuRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresMenuRepository(conn postgres.GenericConn) *PostgresMenuRepository {
	return &PostgresMenuRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresMenuRepository) Query(
	ctx context.Context,
	filter *menuitem.QueryMenuItemsModel,
) ([]menuitem.MenuItem, error) {
	query := r.sb.
		Select("id", "name", "description", "category", "price_cents", "available", "created_at").
		From("menu_items").
		OrderBy("category", "name", "id")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}
	if filter.OnlyAvailable {
		query = query.Where(sq.Eq{"available": true})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.Wrap("failed to query menu items", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (menuitem.MenuItem, error) {
		var dal MenuItemDal
		err := row.Scan(
			&dal.Id,
			&dal.Name,
			&dal.Description,
			&dal.Category,
			&dal.PriceCents,
			&dal.Available,
			&dal.CreatedAt,
		)

		return dal.ToModel(), err
	})
	if err != nil {
		return nil, postgres.Wrap("failed to scan menu items", err)
	}

	return items, nil
}
