package grpctransport

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type flakyStore struct {
	down atomic.Bool
}

func (s *flakyStore) Ping(context.Context) error {
	if s.down.Load() {
		return errors.New("connection refused")
	}

	return nil
}

func startTransport(t *testing.T, store pinger) (*GRPCTransport, healthpb.HealthClient) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	g := newGRPCTransport(config.GRPCConfig{HealthInterval: 10 * time.Millisecond}, store, lis)
	go func() { _ = g.Run() }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return g, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)

	return resp.GetStatus()
}

func TestHealthFollowsStore(t *testing.T) {
	store := &flakyStore{}
	g, client := startTransport(t, store)
	t.Cleanup(func() { _ = g.Shutdown(context.Background()) })

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client))

	store.down.Store(true)
	assert.Eventually(t, func() bool {
		return check(t, client) == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 10*time.Millisecond)

	store.down.Store(false)
	assert.Eventually(t, func() bool {
		return check(t, client) == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 10*time.Millisecond)
}

func TestShutdownIsIdempotent(t *testing.T) {
	g, _ := startTransport(t, &flakyStore{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Shutdown(ctx))
	require.NoError(t, g.Shutdown(ctx))
}
