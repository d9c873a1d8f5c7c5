// Package redisrepo caches closed reporting periods in Redis.
package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ireportrepo"
	"github.com/corray333/backend-labs/canteen/internal/service/models/report"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "canteen:report:"

// CachedReportRepository serves daily and monthly revenue for periods that
// have ended from Redis. Open periods and other reports go straight to next.
// Redis failures fall through to next.
type CachedReportRepository struct {
	next   ireportrepo.IReportRepository
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

func NewCachedReportRepository(
	next ireportrepo.IReportRepository,
	client redis.Cmdable,
	ttl time.Duration,
) *CachedReportRepository {
	return &CachedReportRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// utcDate keeps the calendar date of day and pins it to UTC midnight.
func utcDate(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

func dailyKey(day time.Time) string {
	return keyPrefix + "daily:" + utcDate(day).Format(time.DateOnly)
}

func monthlyKey(year int, month time.Month) string {
	return fmt.Sprintf("%smonthly:%04d-%02d", keyPrefix, year, month)
}

// dayClosed reports whether the UTC day containing t ended before now.
func dayClosed(t, now time.Time) bool {
	start := utcDate(t)

	return !now.UTC().Before(start.AddDate(0, 0, 1))
}

func monthClosed(year int, month time.Month, now time.Time) bool {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	return !now.UTC().Before(start.AddDate(0, 1, 0))
}

func (r *CachedReportRepository) DailyRevenue(ctx context.Context, day time.Time) (report.DailyReport, error) {
	day = utcDate(day)
	if !dayClosed(day, r.now()) {
		return r.next.DailyRevenue(ctx, day)
	}

	return cached(ctx, r, dailyKey(day), func() (report.DailyReport, error) {
		return r.next.DailyRevenue(ctx, day)
	})
}

func (r *CachedReportRepository) MonthlyRevenue(
	ctx context.Context,
	year int,
	month time.Month,
) (report.MonthlyReport, error) {
	if !monthClosed(year, month, r.now()) {
		return r.next.MonthlyRevenue(ctx, year, month)
	}

	return cached(ctx, r, monthlyKey(year, month), func() (report.MonthlyReport, error) {
		return r.next.MonthlyRevenue(ctx, year, month)
	})
}

func (r *CachedReportRepository) PopularItems(ctx context.Context, limit int) ([]report.PopularItem, error) {
	return r.next.PopularItems(ctx, limit)
}

func (r *CachedReportRepository) RatingDistribution(ctx context.Context, menuItemID int64) (map[int]int64, error) {
	return r.next.RatingDistribution(ctx, menuItemID)
}

func cached[T any](ctx context.Context, r *CachedReportRepository, key string, load func() (T, error)) (T, error) {
	var value T

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &value); err == nil {
			return value, nil
		}
		slog.WarnContext(ctx, "Discarding malformed cached report", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.WarnContext(ctx, "Report cache read failed", "key", key, "error", err)
	}

	value, err = load()
	if err != nil {
		return value, err
	}

	if raw, err := json.Marshal(value); err == nil {
		if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
			slog.WarnContext(ctx, "Report cache write failed", "key", key, "error", err)
		}
	}

	return value, nil
}
