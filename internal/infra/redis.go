package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions tunes the Redis client. Zero values keep the go-redis
// defaults.
type RedisOptions struct {
	PoolSize int
	// Timeout bounds dialing and every single command round trip.
	Timeout time.Duration
}

// NewRedisClient builds the client shared by the idempotency cache, the login
// rate limiter and the Transfer event stream. The connection is checked with
// PING before the client is handed out.
func NewRedisClient(ctx context.Context, url string, opts RedisOptions) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	cfg, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.PoolSize > 0 {
		cfg.PoolSize = opts.PoolSize
	}
	if opts.Timeout > 0 {
		cfg.DialTimeout = opts.Timeout
		cfg.ReadTimeout = opts.Timeout
		cfg.WriteTimeout = opts.Timeout
	}

	client := redis.NewClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}
