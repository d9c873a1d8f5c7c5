package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/config"
	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/service/models/payment"
	"github.com/corray333/backend-labs/canteen/internal/service/models/report"
	createorder "github.com/corray333/backend-labs/canteen/internal/transport/http/create_order"
	getorder "github.com/corray333/backend-labs/canteen/internal/transport/http/get_order"
	listmenu "github.com/corray333/backend-labs/canteen/internal/transport/http/list_menu"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/openapi"
	processpayment "github.com/corray333/backend-labs/canteen/internal/transport/http/process_payment"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/reports"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/response"
	"github.com/corray333/backend-labs/canteen/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/canteen/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type orderService interface {
	CreateOrder(ctx context.Context, model order.CreateOrderModel) (order.Order, error)
	GetOrder(ctx context.Context, id int64) (order.Order, error)
	ListMenu(ctx context.Context, onlyAvailable bool) ([]menuitem.MenuItem, error)
}

type paymentService interface {
	ProcessPayment(ctx context.Context, model payment.ProcessPaymentModel) (payment.Payment, error)
}

type reportService interface {
	DailyRevenue(ctx context.Context, day time.Time) (report.DailyReport, error)
	MonthlyRevenue(ctx context.Context, year int, month time.Month) (report.MonthlyReport, error)
	PopularItems(ctx context.Context, limit int) ([]report.PopularItem, error)
	RatingStats(ctx context.Context, menuItemID int64) (report.RatingStats, error)
	Dashboard(ctx context.Context, day time.Time, limit int) (report.Dashboard, error)
}

// pinger reports whether the store is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

// Services groups what the HTTP handlers call into.
type Services struct {
	Orders   orderService
	Payments paymentService
	Reports  reportService
	Store    pinger
}

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	services Services
}

func NewHTTPTransport(cfg config.HTTPConfig, service string, services Services) *HTTPTransport {
	router := newRouter(cfg.CORS, service)
	server := newServer(cfg, router)

	return &HTTPTransport{
		server:   server,
		router:   router,
		services: services,
	}
}

// Run serves until Shutdown is called.
func (h *HTTPTransport) Run() error {
	slog.Info("Starting HTTP server", "address", h.server.Addr)
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/healthz", h.healthz)
	h.router.Get("/swagger/doc.json", openapi.Handler)
	h.router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	h.router.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.createOrder)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/payment", h.processPayment)

		r.Get("/menu", h.listMenu)
		r.Get("/menu/{id}/ratings", h.ratings)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", h.dailyReport)
			r.Get("/monthly", h.monthlyReport)
			r.Get("/popular", h.popularItems)
			r.Get("/dashboard", h.dashboard)
		})
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.services.Orders)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.services.Orders)
}

func (h *HTTPTransport) processPayment(w http.ResponseWriter, r *http.Request) {
	processpayment.ProcessPayment(w, r, h.services.Payments)
}

func (h *HTTPTransport) listMenu(w http.ResponseWriter, r *http.Request) {
	listmenu.ListMenu(w, r, h.services.Orders)
}

func (h *HTTPTransport) ratings(w http.ResponseWriter, r *http.Request) {
	reports.Ratings(w, r, h.services.Reports)
}

func (h *HTTPTransport) dailyReport(w http.ResponseWriter, r *http.Request) {
	reports.Daily(w, r, h.services.Reports)
}

func (h *HTTPTransport) monthlyReport(w http.ResponseWriter, r *http.Request) {
	reports.Monthly(w, r, h.services.Reports)
}

func (h *HTTPTransport) popularItems(w http.ResponseWriter, r *http.Request) {
	reports.Popular(w, r, h.services.Reports)
}

func (h *HTTPTransport) dashboard(w http.ResponseWriter, r *http.Request) {
	reports.Dashboard(w, r, h.services.Reports)
}

func (h *HTTPTransport) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.services.Store.Ping(ctx); err != nil {
		response.WriteError(w, r, apperr.Transient(err))

		return
	}
	response.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func newRouter(cfg config.CORSConfig, service string) *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(trace.NewTraceMiddleware(service))
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(middleware.Recoverer)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(cfg config.HTTPConfig, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", cfg.Port),
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
}
