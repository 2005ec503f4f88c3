package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	entries map[string]CachedBounds
	getErr  error
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]CachedBounds{}}
}

func (c *mapCache) Get(_ context.Context, key string) (CachedBounds, bool, error) {
	if c.getErr != nil {
		return CachedBounds{}, false, c.getErr
	}
	b, ok := c.entries[key]
	return b, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, b CachedBounds, _ time.Duration) error {
	c.sets++
	c.entries[key] = b
	return nil
}

func TestCachedBoundsSource_HitsCacheOnSecondCall(t *testing.T) {
	flaky := newFlaky(0)
	cache := newMapCache()
	src := NewCachedBoundsSource[Hotel, HotelFilter](flaky, cache, time.Minute, HotelFilter.Key, zerolog.Nop())

	ctx := context.Background()
	first, ok, err := src.PriceBounds(ctx, HotelFilter{City: "ist"})
	require.NoError(t, err)
	require.True(t, ok)

	second, ok, err := src.PriceBounds(ctx, HotelFilter{City: "IST"})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, flaky.calls)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.entries, "hotels:IST:0.0")
}

func TestCachedBoundsSource_CachesEmptyDomain(t *testing.T) {
	flaky := newFlaky(0)
	cache := newMapCache()
	src := NewCachedBoundsSource[Hotel, HotelFilter](flaky, cache, time.Minute, HotelFilter.Key, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, ok, err := src.PriceBounds(context.Background(), HotelFilter{City: "PAR"})
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, flaky.calls)
	assert.True(t, cache.entries["hotels:PAR:0.0"].Empty)
}

func TestCachedBoundsSource_FallsThroughOnCacheError(t *testing.T) {
	flaky := newFlaky(0)
	cache := newMapCache()
	cache.getErr = errors.New("redis down")
	src := NewCachedBoundsSource[Hotel, HotelFilter](flaky, cache, time.Minute, HotelFilter.Key, zerolog.Nop())

	b, ok, err := src.PriceBounds(context.Background(), HotelFilter{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 75.0, b.Min)
	assert.Equal(t, 1, flaky.calls)
}

func TestCachedBoundsSource_PassesQueriesThrough(t *testing.T) {
	src := NewCachedBoundsSource[Hotel, HotelFilter](NewMemoryHotelSource(GenerateHotels("IST")), newMapCache(), time.Minute, HotelFilter.Key, zerolog.Nop())

	hotels, err := src.QueryPriceRange(context.Background(), HotelFilter{}, 90, 150)
	require.NoError(t, err)
	assert.Len(t, hotels, 2)

	prices, err := src.Prices(context.Background(), HotelFilter{})
	require.NoError(t, err)
	assert.Len(t, prices, 5)
}
