package settings

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

const cacheKeyPrefix = "settings:"

// CachedStore is a read-through Redis cache in front of a Source. Redis
// failures fall back to the source so a cache outage never blocks a read.
type CachedStore struct {
	source Source
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedStore wraps source. A nil redis client disables caching.
func NewCachedStore(source Source, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedStore {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedStore{source: source, redis: redisClient, ttl: ttl, logger: logger}
}

func (c *CachedStore) key(name string) string {
	return cacheKeyPrefix + name
}

// GetMany serves cached keys from Redis and loads the rest from the source.
func (c *CachedStore) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	if c.redis == nil || len(keys) == 0 {
		return c.source.GetMany(ctx, keys...)
	}

	result := make(map[string]string, len(keys))
	var missing []string

	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = c.key(k)
	}
	cached, err := c.redis.MGet(ctx, redisKeys...).Result()
	if err != nil {
		c.logger.Warn("settings: cache read failed", "error", err)
		return c.source.GetMany(ctx, keys...)
	}
	for i, v := range cached {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, keys[i])
			continue
		}
		result[keys[i]] = s
	}
	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := c.source.GetMany(ctx, missing...)
	if err != nil {
		return nil, err
	}
	pipe := c.redis.Pipeline()
	for k, v := range loaded {
		result[k] = v
		pipe.Set(ctx, c.key(k), v, c.ttl)
	}
	if len(loaded) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			c.logger.Warn("settings: cache write failed", "error", err)
		}
	}
	return result, nil
}

// Invalidate drops cached values so the next read hits the source.
func (c *CachedStore) Invalidate(ctx context.Context, keys ...string) error {
	if c.redis == nil || len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = c.key(k)
	}
	return c.redis.Del(ctx, redisKeys...).Err()
}
