package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tripfare/pricesearch"
)

// CachedBounds is a cached PriceBounds answer. Empty records an empty domain.
type CachedBounds struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Empty bool    `json:"empty"`
}

// BoundsCache stores price bounds by filter key.
type BoundsCache interface {
	Get(ctx context.Context, key string) (CachedBounds, bool, error)
	Set(ctx context.Context, key string, b CachedBounds, ttl time.Duration) error
}

// RedisBoundsCache implements BoundsCache on Redis.
type RedisBoundsCache struct {
	client *redis.Client
	prefix string
}

// NewRedisBoundsCache connects to the Redis instance at url.
func NewRedisBoundsCache(ctx context.Context, url string) (*RedisBoundsCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisBoundsCache{client: client, prefix: "tripfare:bounds:"}, nil
}

// Get implements BoundsCache.
func (c *RedisBoundsCache) Get(ctx context.Context, key string) (CachedBounds, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return CachedBounds{}, false, nil
	}
	if err != nil {
		return CachedBounds{}, false, fmt.Errorf("failed to get from cache: %w", err)
	}
	var b CachedBounds
	if err := json.Unmarshal(raw, &b); err != nil {
		return CachedBounds{}, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return b, true, nil
}

// Set implements BoundsCache.
func (c *RedisBoundsCache) Set(ctx context.Context, key string, b CachedBounds, ttl time.Duration) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (c *RedisBoundsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisBoundsCache) Close() error {
	return c.client.Close()
}

// CachedBoundsSource answers PriceBounds from a cache and passes every other
// query through. A failing cache falls back to the wrapped source.
type CachedBoundsSource[R pricesearch.Pricer, F any] struct {
	next   pricesearch.Source[R, F]
	cache  BoundsCache
	ttl    time.Duration
	key    func(F) string
	logger zerolog.Logger
}

// NewCachedBoundsSource wraps next. key must identify the filtered domain.
func NewCachedBoundsSource[R pricesearch.Pricer, F any](next pricesearch.Source[R, F], cache BoundsCache, ttl time.Duration, key func(F) string, logger zerolog.Logger) *CachedBoundsSource[R, F] {
	return &CachedBoundsSource[R, F]{next: next, cache: cache, ttl: ttl, key: key, logger: logger}
}

// PriceBounds implements pricesearch.Source.
func (s *CachedBoundsSource[R, F]) PriceBounds(ctx context.Context, filter F) (pricesearch.Bounds, bool, error) {
	key := s.key(filter)

	cached, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("bounds cache read failed")
	}
	if hit {
		return pricesearch.Bounds{Min: cached.Min, Max: cached.Max}, !cached.Empty, nil
	}

	b, ok, err := s.next.PriceBounds(ctx, filter)
	if err != nil {
		return b, ok, err
	}
	entry := CachedBounds{Min: b.Min, Max: b.Max, Empty: !ok}
	if err := s.cache.Set(ctx, key, entry, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("bounds cache write failed")
	}
	return b, ok, nil
}

// QueryPriceRange implements pricesearch.Source.
func (s *CachedBoundsSource[R, F]) QueryPriceRange(ctx context.Context, filter F, lo, hi float64) ([]R, error) {
	return s.next.QueryPriceRange(ctx, filter, lo, hi)
}

// Prices implements pricesearch.PriceLister when the wrapped source does.
func (s *CachedBoundsSource[R, F]) Prices(ctx context.Context, filter F) ([]float64, error) {
	lister, ok := s.next.(pricesearch.PriceLister[F])
	if !ok {
		return nil, errNoPriceListing
	}
	return lister.Prices(ctx, filter)
}
