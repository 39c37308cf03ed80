package ownercache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "docaudit:owner:"

// Redis shares resolved owner names across instances. Cache misses and redis
// outages both degrade to a platform lookup, so errors are logged, not
// surfaced.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, ownerID string) (string, bool) {
	name, err := r.client.Get(ctx, keyPrefix+ownerID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		r.logger.WarnContext(ctx, "owner cache read failed", "owner_id", ownerID, "error", err)
		return "", false
	}
	return name, true
}

func (r *Redis) Set(ctx context.Context, ownerID, name string) {
	if err := r.client.Set(ctx, keyPrefix+ownerID, name, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "owner cache write failed", "owner_id", ownerID, "error", err)
	}
}
