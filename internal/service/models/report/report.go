package report

import (
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
)

// DailyReport aggregates non-cancelled orders created on one calendar day.
type DailyReport struct {
	Date         time.Time   `json:"date"`
	OrderCount   int64       `json:"orderCount"`
	RevenueCents money.Cents `json:"revenueCents"`
}

// MonthlyReport aggregates non-cancelled orders created in one calendar month.
type MonthlyReport struct {
	Year         int         `json:"year"`
	Month        time.Month  `json:"month"`
	OrderCount   int64       `json:"orderCount"`
	RevenueCents money.Cents `json:"revenueCents"`
}

type PopularItem struct {
	MenuItemID    int64  `json:"menuItemId"`
	Name          string `json:"name"`
	OrderCount    int64  `json:"orderCount"`
	TotalQuantity int64  `json:"totalQuantity"`
}

// RatingStats summarises reviews of one menu item. Distribution maps each
// rating to the number of reviews that gave it.
type RatingStats struct {
	MenuItemID   int64         `json:"menuItemId"`
	ReviewCount  int64         `json:"reviewCount"`
	Average      float64       `json:"average"`
	Distribution map[int]int64 `json:"distribution"`
}

// Dashboard bundles the reports shown on the admin landing page.
type Dashboard struct {
	Today        DailyReport   `json:"today"`
	ThisMonth    MonthlyReport `json:"thisMonth"`
	PopularItems []PopularItem `json:"popularItems"`
}

// NewRatingStats builds stats from a rating distribution.
func NewRatingStats(menuItemID int64, distribution map[int]int64) RatingStats {
	stats := RatingStats{MenuItemID: menuItemID, Distribution: make(map[int]int64, 5)}
	var sum int64
	for rating := 1; rating <= 5; rating++ {
		n := distribution[rating]
		stats.Distribution[rating] = n
		stats.ReviewCount += n
		sum += int64(rating) * n
	}
	if stats.ReviewCount > 0 {
		stats.Average = float64(sum) / float64(stats.ReviewCount)
	}

	return stats
}
