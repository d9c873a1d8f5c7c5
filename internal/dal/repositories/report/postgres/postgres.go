package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/canteen/internal/dal/postgres"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/report"
	"github.com/jackc/pgx/v5"
)

// PostgresReportRepository aggregates committed rows. It never runs inside a
// write transaction.
type PostgresReportRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresReportRepository(conn postgres.GenericConn) *PostgresReportRepository {
	return &PostgresReportRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresReportRepository) revenue(ctx context.Context, from, to time.Time) (int64, money.Cents, error) {
	sql, args, err := r.sb.
		Select("COUNT(*)", "COALESCE(SUM(total_cents), 0)::bigint").
		From("orders").
		Where(sq.GtOrEq{"created_at": from}).
		Where(sq.Lt{"created_at": to}).
		Where(sq.NotEq{"status": string(order.StatusCancelled)}).
		ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build query: %w", err)
	}

	var count, revenue int64
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&count, &revenue); err != nil {
		return 0, 0, postgres.Wrap("failed to aggregate revenue", err)
	}

	return count, money.Cents(revenue), nil
}

// DailyRevenue covers [day 00:00 UTC, next day 00:00 UTC).
func (r *PostgresReportRepository) DailyRevenue(ctx context.Context, day time.Time) (report.DailyReport, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	count, revenue, err := r.revenue(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return report.DailyReport{}, err
	}

	return report.DailyReport{Date: from, OrderCount: count, RevenueCents: revenue}, nil
}

func (r *PostgresReportRepository) MonthlyRevenue(
	ctx context.Context,
	year int,
	month time.Month,
) (report.MonthlyReport, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	count, revenue, err := r.revenue(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return report.MonthlyReport{}, err
	}

	return report.MonthlyReport{Year: year, Month: month, OrderCount: count, RevenueCents: revenue}, nil
}

func (r *PostgresReportRepository) PopularItems(ctx context.Context, limit int) ([]report.PopularItem, error) {
	sql, args, err := r.sb.
		Select(
			"mi.id",
			"mi.name",
			"COUNT(DISTINCT oi.order_id)",
			"SUM(oi.quantity)",
		).
		From("order_items oi").
		Join("menu_items mi ON mi.id = oi.menu_item_id").
		Join("orders o ON o.id = oi.order_id").
		Where(sq.NotEq{"o.status": string(order.StatusCancelled)}).
		GroupBy("mi.id", "mi.name").
		OrderBy("SUM(oi.quantity) DESC", "mi.id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.Wrap("failed to query popular items", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.PopularItem, error) {
		var item report.PopularItem
		err := row.Scan(&item.MenuItemID, &item.Name, &item.OrderCount, &item.TotalQuantity)

		return item, err
	})
	if err != nil {
		return nil, postgres.Wrap("failed to scan popular items", err)
	}

	return items, nil
}

func (r *PostgresReportRepository) RatingDistribution(ctx context.Context, menuItemID int64) (map[int]int64, error) {
	sql, args, err := r.sb.
		Select("rating", "COUNT(*)").
		From("reviews").
		Where(sq.Eq{"menu_item_id": menuItemID}).
		GroupBy("rating").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.Wrap("failed to query ratings", err)
	}
	defer rows.Close()

	distribution := make(map[int]int64, 5)
	for rows.Next() {
		var rating int
		var count int64
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		distribution[rating] = count
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Wrap("rows iteration error", err)
	}

	return distribution, nil
}
