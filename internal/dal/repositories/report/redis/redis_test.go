package redisrepo

import (
	"context"
	"testing"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/report"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReportRepository struct {
	mock.Mock
}

func (m *mockReportRepository) DailyRevenue(ctx context.Context, day time.Time) (report.DailyReport, error) {
	args := m.Called(ctx, day)

	return args.Get(0).(report.DailyReport), args.Error(1)
}

func (m *mockReportRepository) MonthlyRevenue(
	ctx context.Context,
	year int,
	month time.Month,
) (report.MonthlyReport, error) {
	args := m.Called(ctx, year, month)

	return args.Get(0).(report.MonthlyReport), args.Error(1)
}

func (m *mockReportRepository) PopularItems(ctx context.Context, limit int) ([]report.PopularItem, error) {
	args := m.Called(ctx, limit)

	return args.Get(0).([]report.PopularItem), args.Error(1)
}

func (m *mockReportRepository) RatingDistribution(ctx context.Context, menuItemID int64) (map[int]int64, error) {
	args := m.Called(ctx, menuItemID)

	return args.Get(0).(map[int]int64), args.Error(1)
}

// unreachableRedis fails every command without retrying.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestDayClosed(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.True(t, dayClosed(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, dayClosed(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, dayClosed(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), now))
}

func TestMonthClosed(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, monthClosed(2026, time.February, now))
	assert.False(t, monthClosed(2026, time.March, now))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "canteen:report:daily:2026-03-09", dailyKey(time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "canteen:report:monthly:2026-02", monthlyKey(2026, time.February))
}

func TestKeys_NonUTCDayKeepsCalendarDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	day := time.Date(2026, 3, 9, 2, 0, 0, 0, ist)

	assert.Equal(t, "canteen:report:daily:2026-03-09", dailyKey(day))
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), utcDate(day))
}

func TestDailyRevenue_NormalisesDayBeforeLoading(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	utcDay := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	want := report.DailyReport{Date: utcDay, OrderCount: 2, RevenueCents: 8000}

	tests := []struct {
		name string
		now  time.Time
	}{
		{"open day", time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)},
		{"closed day", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &mockReportRepository{}
			next.On("DailyRevenue", mock.Anything, utcDay).Return(want, nil).Once()

			repo := NewCachedReportRepository(next, unreachableRedis(t), time.Hour)
			repo.now = func() time.Time { return tt.now }

			got, err := repo.DailyRevenue(context.Background(), time.Date(2026, 3, 9, 2, 0, 0, 0, ist))
			require.NoError(t, err)
			assert.Equal(t, want, got)
			next.AssertExpectations(t)
		})
	}
}
