package reportsvc

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ireportrepo"
	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/report"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPopularLimit = 10
	MaxPopularLimit     = 100
)

// ReportService answers read-only questions about committed orders.
type ReportService struct {
	repo    ireportrepo.IReportRepository
	timeout time.Duration
	now     func() time.Time
}

type option func(*ReportService)

func MustNewReportService(opts ...option) *ReportService {
	s := &ReportService{
		timeout: 5 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.repo == nil {
		panic("reportsvc: no report repository configured")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithRepository(repo ireportrepo.IReportRepository) option {
	return func(s *ReportService) {
		s.repo = repo
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOperationTimeout(d time.Duration) option {
	return func(s *ReportService) {
		s.timeout = d
	}
}

func (s *ReportService) DailyRevenue(ctx context.Context, day time.Time) (report.DailyReport, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "ReportService.DailyRevenue")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	r, err := s.repo.DailyRevenue(ctx, day)

	return r, apperr.Classify(err)
}

func (s *ReportService) MonthlyRevenue(ctx context.Context, year int, month time.Month) (report.MonthlyReport, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "ReportService.MonthlyRevenue")
	defer span.End()

	if month < time.January || month > time.December {
		return report.MonthlyReport{}, apperr.Validation("month", "must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return report.MonthlyReport{}, apperr.Validation("year", "out of range")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	r, err := s.repo.MonthlyRevenue(ctx, year, month)

	return r, apperr.Classify(err)
}

// PopularItems ranks menu items by quantity ordered. Zero limit means the
// default.
func (s *ReportService) PopularItems(ctx context.Context, limit int) ([]report.PopularItem, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "ReportService.PopularItems")
	defer span.End()

	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, err := s.repo.PopularItems(ctx, limit)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	if items == nil {
		items = []report.PopularItem{}
	}

	return items, nil
}

func normalizeLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return DefaultPopularLimit, nil
	case limit < 0 || limit > MaxPopularLimit:
		return 0, apperr.Validation("limit", "must be between 1 and %d", MaxPopularLimit)
	}

	return limit, nil
}

func (s *ReportService) RatingStats(ctx context.Context, menuItemID int64) (report.RatingStats, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "ReportService.RatingStats")
	defer span.End()

	if menuItemID <= 0 {
		return report.RatingStats{}, apperr.Validation("menuItemId", "must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	distribution, err := s.repo.RatingDistribution(ctx, menuItemID)
	if err != nil {
		return report.RatingStats{}, apperr.Classify(err)
	}

	return report.NewRatingStats(menuItemID, distribution), nil
}

// Dashboard collects the day's and month's revenue and the popular items
// concurrently. A zero day means today.
func (s *ReportService) Dashboard(ctx context.Context, day time.Time, limit int) (report.Dashboard, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "ReportService.Dashboard")
	defer span.End()

	if day.IsZero() {
		day = s.now()
	}

	var d report.Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Today, err = s.DailyRevenue(gctx, day)

		return err
	})
	g.Go(func() error {
		var err error
		d.ThisMonth, err = s.MonthlyRevenue(gctx, day.Year(), day.Month())

		return err
	})
	g.Go(func() error {
		var err error
		d.PopularItems, err = s.PopularItems(gctx, limit)

		return err
	})
	if err := g.Wait(); err != nil {
		return report.Dashboard{}, err
	}

	return d, nil
}
