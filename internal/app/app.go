package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/corray333/backend-labs/canteen/internal/config"
	"github.com/corray333/backend-labs/canteen/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/canteen/internal/dal/redis"
	redisrepo "github.com/corray333/backend-labs/canteen/internal/dal/repositories/report/redis"
	"github.com/corray333/backend-labs/canteen/internal/otel"
	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"github.com/corray333/backend-labs/canteen/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/canteen/internal/service/services/paymentsvc"
	"github.com/corray333/backend-labs/canteen/internal/service/services/reportsvc"
	grpctransport "github.com/corray333/backend-labs/canteen/internal/transport/grpc"
	httptransport "github.com/corray333/backend-labs/canteen/internal/transport/http"
	outboxworker "github.com/corray333/backend-labs/canteen/internal/worker/outbox"
)

// App represents the application.
type App struct {
	cfg           *config.Config
	otel          *otel.OtelController
	storage       storage
	redisClient   *redis.Client
	publisher     *rabbitmq.Publisher
	outboxWorker  *outboxworker.Worker
	httpTransport *httptransport.HTTPTransport
	grpcTransport *grpctransport.GRPCTransport
}

// MustNewApp wires storage, optional cache and broker, services and
// transports from cfg.
func MustNewApp(cfg *config.Config) *App {
	a := &App{
		cfg:  cfg,
		otel: otel.MustInitOtel(cfg.Tracing),
	}
	a.storage = mustNewStorage(cfg)

	reports := a.storage.reports
	if cfg.Redis.Enabled {
		a.redisClient = redis.MustNewClient(cfg.Redis)
		reports = redisrepo.NewCachedReportRepository(reports, a.redisClient.Redis(), cfg.Redis.ReportTTL)
	}

	events := outbox.Target{Queue: cfg.RabbitMQ.Queue, MaxRetries: cfg.Outbox.MaxRetries}
	if cfg.RabbitMQ.Enabled {
		a.publisher = rabbitmq.MustNewPublisher(cfg.RabbitMQ, events)
		a.outboxWorker = outboxworker.NewWorker(a.storage.outbox, a.publisher, cfg.Outbox)
	}

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithUnitOfWorkFactory(a.storage.newUOW),
		ordersvc.WithOperationTimeout(cfg.Postgres.OperationTimeout),
		ordersvc.WithEventTarget(events),
	)
	paymentSvc := paymentsvc.MustNewPaymentService(
		paymentsvc.WithUnitOfWorkFactory(a.storage.newUOW),
		paymentsvc.WithOperationTimeout(cfg.Postgres.OperationTimeout),
		paymentsvc.WithEventTarget(events),
	)
	reportSvc := reportsvc.MustNewReportService(
		reportsvc.WithRepository(reports),
		reportsvc.WithOperationTimeout(cfg.Postgres.OperationTimeout),
	)

	a.httpTransport = httptransport.NewHTTPTransport(cfg.Server.HTTP, cfg.Service, httptransport.Services{
		Orders:   orderSvc,
		Payments: paymentSvc,
		Reports:  reportSvc,
		Store:    a.storage,
	})
	a.httpTransport.RegisterRoutes()

	if cfg.Server.GRPC.Enabled {
		a.grpcTransport = grpctransport.NewGRPCTransport(cfg.Server.GRPC, a.storage)
	}

	return a
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := a.httpTransport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	if a.grpcTransport != nil {
		go func() {
			if err := a.grpcTransport.Run(); err != nil {
				slog.Error("gRPC server error", "error", err)
				stop()
			}
		}()
	}

	if a.outboxWorker != nil {
		go a.outboxWorker.Start(ctx)
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received")

	a.shutdown()
}

// shutdown stops intake first, then the relay, then closes connections.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.HTTP.ShutdownTimeout)
	defer cancel()

	if a.grpcTransport != nil {
		if err := a.grpcTransport.Shutdown(ctx); err != nil {
			slog.Error("gRPC server shutdown error", "error", err)
		} else {
			slog.Info("gRPC server stopped gracefully")
		}
	}

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if a.outboxWorker != nil {
		a.outboxWorker.Stop()
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			slog.Error("Redis connection close error", "error", err)
		}
	}

	a.storage.close()

	if err := a.otel.Shutdown(ctx); err != nil {
		slog.Error("Tracer provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
