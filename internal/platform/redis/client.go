// Package redis owns the shared redis connection backing the owner-name
// cache. An empty URL means redis is not deployed and callers keep the cache
// in-process.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"docaudit/internal/platform/config"
)

// Client wraps the go-redis client with the lifecycle and health hooks main
// wires up.
type Client struct {
	*redis.Client
}

// New connects using the configured URL and pool settings and verifies the
// connection with a ping. Returns (nil, nil) when redis is not configured.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health pings redis so the health endpoint can report the cache backend as
// degraded instead of failing owner lookups silently.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
