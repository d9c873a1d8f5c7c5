package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ireportrepo"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/report"
)

// OutboxRepository returns a repository for the relay worker.
func (s *Store) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return s.NewUnitOfWork().OutboxRepository()
}

func (s *Store) ReportRepository() ireportrepo.IReportRepository {
	return &reportRepo{store: s}
}

type reportRepo struct {
	store *Store
}

func (r *reportRepo) revenue(from, to time.Time) (int64, money.Cents) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	var revenue money.Cents
	for _, o := range r.store.orders {
		if o.Status == order.StatusCancelled || o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		count++
		revenue += o.TotalCents
	}

	return count, revenue
}

func (r *reportRepo) DailyRevenue(ctx context.Context, day time.Time) (report.DailyReport, error) {
	if err := ctxErr(ctx); err != nil {
		return report.DailyReport{}, err
	}

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	count, revenue := r.revenue(from, from.AddDate(0, 0, 1))

	return report.DailyReport{Date: from, OrderCount: count, RevenueCents: revenue}, nil
}

func (r *reportRepo) MonthlyRevenue(ctx context.Context, year int, month time.Month) (report.MonthlyReport, error) {
	if err := ctxErr(ctx); err != nil {
		return report.MonthlyReport{}, err
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	count, revenue := r.revenue(from, from.AddDate(0, 1, 0))

	return report.MonthlyReport{Year: year, Month: month, OrderCount: count, RevenueCents: revenue}, nil
}

func (r *reportRepo) PopularItems(ctx context.Context, limit int) ([]report.PopularItem, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	byItem := make(map[int64]*report.PopularItem)
	seen := make(map[[2]int64]bool)
	for _, item := range s.items {
		if s.orders[item.OrderID].Status == order.StatusCancelled {
			continue
		}
		p, ok := byItem[item.MenuItemID]
		if !ok {
			p = &report.PopularItem{MenuItemID: item.MenuItemID, Name: s.menu[item.MenuItemID].Name}
			byItem[item.MenuItemID] = p
		}
		p.TotalQuantity += int64(item.Quantity)
		if key := [2]int64{item.MenuItemID, item.OrderID}; !seen[key] {
			seen[key] = true
			p.OrderCount++
		}
	}

	result := make([]report.PopularItem, 0, len(byItem))
	for _, p := range byItem {
		result = append(result, *p)
	}
	slices.SortFunc(result, func(a, b report.PopularItem) int {
		return cmp.Or(cmp.Compare(b.TotalQuantity, a.TotalQuantity), cmp.Compare(a.MenuItemID, b.MenuItemID))
	})
	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (r *reportRepo) RatingDistribution(ctx context.Context, menuItemID int64) (map[int]int64, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	distribution := make(map[int]int64, 5)
	for _, rv := range r.store.reviews {
		if rv.MenuItemID == menuItemID {
			distribution[rv.Rating]++
		}
	}

	return distribution, nil
}
