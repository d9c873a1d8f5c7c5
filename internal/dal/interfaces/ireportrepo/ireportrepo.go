package ireportrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/report"
)

// IReportRepository aggregates committed orders and reviews.
type IReportRepository interface {
	DailyRevenue(ctx context.Context, day time.Time) (report.DailyReport, error)
	MonthlyRevenue(ctx context.Context, year int, month time.Month) (report.MonthlyReport, error)
	PopularItems(ctx context.Context, limit int) ([]report.PopularItem, error)
	RatingDistribution(ctx context.Context, menuItemID int64) (map[int]int64, error)
}
