package redis

import (
	"context"
	"fmt"
	"time"

	"healthcore/common/config"

	"github.com/go-redis/redis/v8"
)

// DefaultDialTimeout dial and ping bound when the config leaves it unset
const DefaultDialTimeout = 3 * time.Second

// Client alias so callers don't import go-redis directly
type Client = redis.Client

// NewRedisClient creates a client from cfg; it does not dial.
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	opts := &redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	return redis.NewClient(opts)
}

// Ping checks the connection within the client's dial timeout.
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, client.Options().DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}
	return nil
}

// Close closes the client; nil is a no-op.
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
