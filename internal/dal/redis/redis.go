package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corray333/backend-labs/canteen/internal/config"
	"github.com/redis/go-redis/v9"
)

// Client represents a Redis client.
type Client struct {
	rdb *redis.Client
}

// Redis returns the underlying go-redis client.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// MustNewClient creates a new Redis client and checks the connection.
func MustNewClient(cfg config.RedisConfig) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	slog.Info("Redis connected", "addr", cfg.Addr)

	return &Client{rdb: rdb}
}
