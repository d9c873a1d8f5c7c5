// Package reports serves the admin reporting endpoints.
package reports

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/report"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/request"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
)

const dateLayout = time.DateOnly

type service interface {
	DailyRevenue(ctx context.Context, day time.Time) (report.DailyReport, error)
	MonthlyRevenue(ctx context.Context, year int, month time.Month) (report.MonthlyReport, error)
	PopularItems(ctx context.Context, limit int) ([]report.PopularItem, error)
	RatingStats(ctx context.Context, menuItemID int64) (report.RatingStats, error)
	Dashboard(ctx context.Context, day time.Time, limit int) (report.Dashboard, error)
}

type dayRequest struct {
	Date string `schema:"date" validate:"omitempty,datetime=2006-01-02"`
}

// parseDay returns the validated date, or today in UTC when it is empty.
func parseDay(date string) time.Time {
	if date == "" {
		return time.Now().UTC()
	}
	d, _ := time.Parse(dateLayout, date)

	return d
}

type monthRequest struct {
	Year  int `schema:"year"  validate:"gte=1,lte=9999"`
	Month int `schema:"month" validate:"gte=1,lte=12"`
}

type popularRequest struct {
	Limit int `schema:"limit" validate:"gte=0"`
}

type dashboardRequest struct {
	Date  string `schema:"date"  validate:"omitempty,datetime=2006-01-02"`
	Limit int    `schema:"limit" validate:"gte=0"`
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func ok[T any](w http.ResponseWriter, r *http.Request, data T) {
	response.WriteJSON(w, r, http.StatusOK, envelope[T]{Success: true, Data: data})
}

// Daily handles GET /api/reports/daily?date=YYYY-MM-DD.
func Daily(w http.ResponseWriter, r *http.Request, service service) {
	var req dayRequest
	if err := request.DecodeQuery(r, &req); err != nil {
		response.WriteError(w, r, err)

		return
	}

	rep, err := service.DailyRevenue(r.Context(), parseDay(req.Date))
	if err != nil {
		response.WriteError(w, r, err)

		return
	}
	ok(w, r, rep)
}

// Monthly handles GET /api/reports/monthly?year=&month=.
func Monthly(w http.ResponseWriter, r *http.Request, service service) {
	var req monthRequest
	if err := request.DecodeQuery(r, &req); err != nil {
		response.WriteError(w, r, err)

		return
	}

	rep, err := service.MonthlyRevenue(r.Context(), req.Year, time.Month(req.Month))
	if err != nil {
		response.WriteError(w, r, err)

		return
	}
	ok(w, r, rep)
}

// Popular handles GET /api/reports/popular?limit=.
func Popular(w http.ResponseWriter, r *http.Request, service service) {
	var req popularRequest
	if err := request.DecodeQuery(r, &req); err != nil {
		response.WriteError(w, r, err)

		return
	}

	items, err := service.PopularItems(r.Context(), req.Limit)
	if err != nil {
		response.WriteError(w, r, err)

		return
	}
	ok(w, r, items)
}

// Dashboard handles GET /api/reports/dashboard?date=&limit=.
func Dashboard(w http.ResponseWriter, r *http.Request, service service) {
	var req dashboardRequest
	if err := request.DecodeQuery(r, &req); err != nil {
		response.WriteError(w, r, err)

		return
	}

	d, err := service.Dashboard(r.Context(), parseDay(req.Date), req.Limit)
	if err != nil {
		response.WriteError(w, r, err)

		return
	}
	ok(w, r, d)
}

// Ratings handles GET /api/menu/{id}/ratings.
func Ratings(w http.ResponseWriter, r *http.Request, service service) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.WriteError(w, r, apperr.Validation("id", "must be a positive integer"))

		return
	}

	stats, err := service.RatingStats(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, err)

		return
	}
	ok(w, r, stats)
}
