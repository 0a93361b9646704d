package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cached fronts a durable store with a redis read-through cache. Cache
// failures are logged and never fail the call.
type Cached struct {
	base   Store
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCached(base Store, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{base: base, cache: cache, ttl: ttl, logger: logger}
}

func (c *Cached) cacheKey(key string) string {
	return "saves:" + key
}

func (c *Cached) Load(ctx context.Context, key string) ([]byte, error) {
	if c.cache != nil {
		b, err := c.cache.Get(ctx, c.cacheKey(key)).Bytes()
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("save cache read failed")
		}
	}
	b, err := c.base.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, c.cacheKey(key), b, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("save cache fill failed")
		}
	}
	return b, nil
}

func (c *Cached) Save(ctx context.Context, key string, value []byte) error {
	if err := c.base.Save(ctx, key, value); err != nil {
		return err
	}
	c.invalidate(ctx, key)
	return nil
}

func (c *Cached) Delete(ctx context.Context, key string) error {
	if err := c.base.Delete(ctx, key); err != nil {
		return err
	}
	c.invalidate(ctx, key)
	return nil
}

func (c *Cached) invalidate(ctx context.Context, key string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Del(ctx, c.cacheKey(key)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("save cache invalidate failed")
	}
}
