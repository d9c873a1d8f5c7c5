package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Client represents a Postgres client.
type Client struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying connection pool.
func (p *Client) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *Client) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database connection for graceful shutdown.
func (p *Client) Close() {
	p.pool.Close()
}

// NewClient connects, retrying while the database is starting up, and
// applies pending migrations.
func NewClient(ctx context.Context, cfg config.PostgresConfig) (*Client, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	retries := max(cfg.ConnectRetries, 1)
	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt >= retries {
			pool.Close()

			return nil, fmt.Errorf("failed to ping postgres after %d attempts: %w", attempt, err)
		}
		slog.Warn("Postgres is not ready, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			pool.Close()

			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}

	if err := migrate(pool, cfg.MigrationsPath); err != nil {
		pool.Close()

		return nil, err
	}

	return &Client{
		pool: pool,
	}, nil
}

// MustNewClient creates a new Postgres client.
func MustNewClient(cfg config.PostgresConfig) *Client {
	client, err := NewClient(context.Background(), cfg)
	if err != nil {
		panic(err)
	}
	slog.Info("Postgres connected", "host", cfg.Host, "db", cfg.DB)

	return client
}

func migrate(pool *pgxpool.Pool, path string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.Up(db, path); err != nil && !errors.Is(err, goose.ErrNoNextVersion) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
