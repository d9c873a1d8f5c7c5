package grpctransport

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

const defaultHealthInterval = 5 * time.Second

// pinger reports whether the store is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

// GRPCTransport serves grpc.health.v1.Health, tracking the store.
type GRPCTransport struct {
	server   *grpc.Server
	listener net.Listener
	health   *health.Server
	store    pinger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewGRPCTransport creates a new GRPCTransport.
func NewGRPCTransport(cfg config.GRPCConfig, store pinger) *GRPCTransport {
	listener, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		panic(err)
	}

	return newGRPCTransport(cfg, store, listener)
}

func newGRPCTransport(cfg config.GRPCConfig, store pinger, listener net.Listener) *GRPCTransport {
	interval := cfg.HealthInterval
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	return &GRPCTransport{
		server:   newGRPCServer(cfg.Keepalive),
		listener: listener,
		health:   health.NewServer(),
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Run starts the gRPC server.
func (g *GRPCTransport) Run() error {
	g.RegisterServices()
	g.probe()
	go g.watch()

	slog.Info("Starting gRPC server", "address", g.listener.Addr().String())

	return g.server.Serve(g.listener)
}

// Shutdown reports NOT_SERVING and gracefully shuts down the gRPC server.
func (g *GRPCTransport) Shutdown(ctx context.Context) error {
	g.stopOnce.Do(func() { close(g.stopCh) })
	g.health.Shutdown()

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.server.Stop()

		return ctx.Err()
	}
}

// RegisterServices registers the gRPC services.
func (g *GRPCTransport) RegisterServices() {
	healthpb.RegisterHealthServer(g.server, g.health)
}

func (g *GRPCTransport) watch() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			return
		case <-ticker.C:
			g.probe()
		}
	}
}

func (g *GRPCTransport) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), g.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := g.store.Ping(ctx); err != nil {
		slog.Warn("Store health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.health.SetServingStatus("", status)
}

// newGRPCServer creates a gRPC server with the configured keepalive policy.
func newGRPCServer(cfg config.KeepaliveConfig) *grpc.Server {
	keepaliveParams := keepalive.ServerParameters{
		MaxConnectionIdle:     cfg.MaxConnectionIdle,
		MaxConnectionAge:      cfg.MaxConnectionAge,
		MaxConnectionAgeGrace: cfg.MaxConnectionAgeGrace,
		Time:                  cfg.Time,
		Timeout:               cfg.Timeout,
	}

	keepalivePolicy := keepalive.EnforcementPolicy{
		MinTime:             cfg.MinTime,
		PermitWithoutStream: cfg.PermitWithoutStream,
	}

	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepaliveParams),
		grpc.KeepaliveEnforcementPolicy(keepalivePolicy),
	}

	return grpc.NewServer(opts...)
}
