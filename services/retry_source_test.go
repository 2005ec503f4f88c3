package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripfare/pricesearch"
)

// flakySource fails the first failures calls of every method.
type flakySource struct {
	failures int
	calls    int
	err      error
	inner    *pricesearch.MemorySource[Hotel, HotelFilter]
}

func (f *flakySource) fail() error {
	f.calls++
	if f.calls <= f.failures {
		if f.err != nil {
			return f.err
		}
		return errors.New("connection reset")
	}
	return nil
}

func (f *flakySource) PriceBounds(ctx context.Context, filter HotelFilter) (pricesearch.Bounds, bool, error) {
	if err := f.fail(); err != nil {
		return pricesearch.Bounds{}, false, err
	}
	return f.inner.PriceBounds(ctx, filter)
}

func (f *flakySource) QueryPriceRange(ctx context.Context, filter HotelFilter, lo, hi float64) ([]Hotel, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.inner.QueryPriceRange(ctx, filter, lo, hi)
}

func newFlaky(failures int) *flakySource {
	return &flakySource{failures: failures, inner: NewMemoryHotelSource(GenerateHotels("IST"))}
}

func TestRetrySource_RecoversFromTransientFailures(t *testing.T) {
	flaky := newFlaky(2)
	src := NewRetrySource[Hotel, HotelFilter](flaky, 3, time.Millisecond, zerolog.Nop())

	b, ok, err := src.PriceBounds(context.Background(), HotelFilter{City: "IST"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 75.0, b.Min)
	assert.Equal(t, 180.0, b.Max)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetrySource_GivesUp(t *testing.T) {
	flaky := newFlaky(10)
	src := NewRetrySource[Hotel, HotelFilter](flaky, 3, time.Millisecond, zerolog.Nop())

	_, err := src.QueryPriceRange(context.Background(), HotelFilter{}, 0, 100)
	require.Error(t, err)
	assert.EqualError(t, err, "connection reset")
	assert.Equal(t, 3, flaky.calls)
}

func TestRetrySource_DoesNotRetryCancellation(t *testing.T) {
	flaky := newFlaky(10)
	flaky.err = context.Canceled
	src := NewRetrySource[Hotel, HotelFilter](flaky, 5, time.Millisecond, zerolog.Nop())

	_, _, err := src.PriceBounds(context.Background(), HotelFilter{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, flaky.calls)
}

func TestRetrySource_SearchSurfacesUnavailable(t *testing.T) {
	src := NewRetrySource[Hotel, HotelFilter](newFlaky(100), 2, time.Millisecond, zerolog.Nop())

	_, err := pricesearch.Search[Hotel, HotelFilter](context.Background(), src, pricesearch.NewRequest(100, 10, HotelFilter{}))
	require.ErrorIs(t, err, pricesearch.ErrSourceUnavailable)
}

func TestRetrySource_Prices(t *testing.T) {
	src := NewRetrySource[Hotel, HotelFilter](NewMemoryHotelSource(GenerateHotels("IST")), 1, time.Millisecond, zerolog.Nop())
	prices, err := src.Prices(context.Background(), HotelFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{180, 165, 95, 75, 140}, prices)

	noList := NewRetrySource[Hotel, HotelFilter](newFlaky(0), 1, time.Millisecond, zerolog.Nop())
	_, err = noList.Prices(context.Background(), HotelFilter{})
	assert.ErrorIs(t, err, errNoPriceListing)
}
