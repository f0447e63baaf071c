package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"energyguard/internal/observability/metrics"
)

// Redis is a Cache backed by a Redis server with an in-process fallback tier.
// Every Set also writes the memory tier, so a Redis outage degrades to
// process-local caching instead of failing reads.
type Redis struct {
	client   *redis.Client
	fallback *Memory
	logger   zerolog.Logger
}

// NewRedis constructs a Redis cache.
func NewRedis(client *redis.Client, logger zerolog.Logger) (*Redis, error) {
	if client == nil {
		return nil, errors.New("cache: nil redis client")
	}
	return &Redis{client: client, fallback: NewMemory(), logger: logger}, nil
}

// Get returns the cached value, consulting Redis first and the memory tier
// when Redis is unavailable.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		metrics.IncCacheHit()
		return value, true, nil
	case errors.Is(err, redis.Nil):
		metrics.IncCacheMiss()
		return nil, false, nil
	default:
		metrics.IncCacheError()
		r.logger.Warn().Err(err).Str("key", key).Msg("redis get failed, using memory tier")
		return r.fallback.Get(ctx, key)
	}
}

// Set stores the value in both tiers.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = r.fallback.Set(ctx, key, value, ttl)
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		metrics.IncCacheError()
		r.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
		return err
	}
	return nil
}

// Del removes the key from both tiers.
func (r *Redis) Del(ctx context.Context, key string) error {
	_ = r.fallback.Del(ctx, key)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		metrics.IncCacheError()
		return err
	}
	return nil
}
