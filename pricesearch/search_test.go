package pricesearch_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripfare/pricesearch"
)

type fare float64

func (f fare) PriceValue() float64 { return float64(f) }

type noFilter struct{}

func sourceOf(prices ...float64) *pricesearch.MemorySource[fare, noFilter] {
	records := make([]fare, len(prices))
	for i, p := range prices {
		records[i] = fare(p)
	}
	return pricesearch.NewMemorySource[fare, noFilter](records, nil)
}

func search(ctx context.Context, src pricesearch.Source[fare, noFilter], req pricesearch.Request[noFilter], opts ...pricesearch.Option) (*pricesearch.Result[fare], error) {
	return pricesearch.Search(ctx, src, req, opts...)
}

func pricesOf(matches []fare) []float64 {
	out := make([]float64, len(matches))
	for i, m := range matches {
		out[i] = float64(m)
	}
	return out
}

func request(target, tolerance float64, adaptive bool) pricesearch.Request[noFilter] {
	req := pricesearch.NewRequest(target, tolerance, noFilter{})
	req.AdaptiveTolerance = adaptive
	return req
}

// stubSource records calls and fails on demand.
type stubSource struct {
	boundsErr error
	queryErr  error
	calls     int
}

func (s *stubSource) PriceBounds(ctx context.Context, _ noFilter) (pricesearch.Bounds, bool, error) {
	s.calls++
	if s.boundsErr != nil {
		return pricesearch.Bounds{}, false, s.boundsErr
	}
	return pricesearch.Bounds{Min: 100, Max: 200}, true, nil
}

func (s *stubSource) QueryPriceRange(ctx context.Context, _ noFilter, lo, hi float64) ([]fare, error) {
	s.calls++
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return nil, nil
}

func TestSearch_ExactBandMatch(t *testing.T) {
	res, err := search(context.Background(), sourceOf(100, 150, 200, 250, 300), request(200, 10, false))
	require.NoError(t, err)

	assert.Equal(t, []float64{200}, pricesOf(res.Matches))
	assert.True(t, res.FoundWithinInitialTolerance)
	assert.Equal(t, 10.0, res.FinalTolerance)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 2, res.Queries)
	assert.Equal(t, pricesearch.PhaseStepping, res.Phase)
	require.NotNil(t, res.DomainMin)
	require.NotNil(t, res.DomainMax)
	assert.Equal(t, 100.0, *res.DomainMin)
	assert.Equal(t, 300.0, *res.DomainMax)
}

func TestSearch_NoRecordWithinToleranceIsEmpty(t *testing.T) {
	res, err := search(context.Background(), sourceOf(100, 600), request(300, 20, false))
	require.NoError(t, err)

	assert.Empty(t, res.Matches)
	assert.False(t, res.FoundWithinInitialTolerance)
	assert.Equal(t, 20.0, res.FinalTolerance)
	assert.Equal(t, pricesearch.PhaseNone, res.Phase)
}

func TestSearch_AdaptiveWideningReachesNearestRecord(t *testing.T) {
	res, err := search(context.Background(), sourceOf(100, 600), request(300, 20, true))
	require.NoError(t, err)

	assert.Equal(t, []float64{100}, pricesOf(res.Matches))
	assert.False(t, res.FoundWithinInitialTolerance)
	assert.Equal(t, pricesearch.PhaseWidening, res.Phase)
	assert.InDelta(t, 227.8125, res.FinalTolerance, 1e-9)
	assert.Greater(t, res.FinalTolerance, res.InitialTolerance)
}

func TestSearch_EmptyDomain(t *testing.T) {
	for _, adaptive := range []bool{false, true} {
		res, err := search(context.Background(), sourceOf(), request(300, 20, adaptive))
		require.NoError(t, err)

		assert.Empty(t, res.Matches)
		assert.False(t, res.FoundWithinInitialTolerance)
		assert.Nil(t, res.DomainMin)
		assert.Equal(t, 1, res.Queries)
	}
}

func TestSearch_ZeroToleranceExactMatch(t *testing.T) {
	res, err := search(context.Background(), sourceOf(100, 150, 150, 200, 250, 300), request(150, 0, false))
	require.NoError(t, err)

	assert.Equal(t, []float64{150, 150}, pricesOf(res.Matches))
	assert.True(t, res.FoundWithinInitialTolerance)
	assert.Equal(t, 0.0, res.FinalTolerance)
}

func TestSearch_TargetOutsideRange(t *testing.T) {
	src := sourceOf(100, 200)

	res, err := search(context.Background(), src, request(500, 10, false))
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 1, res.Queries)
	assert.Equal(t, 10.0, res.FinalTolerance)

	res, err = search(context.Background(), src, request(500, 10, true))
	require.NoError(t, err)
	assert.Equal(t, []float64{200, 100}, pricesOf(res.Matches))
	assert.Equal(t, 300.0, res.FinalTolerance)
	assert.False(t, res.FoundWithinInitialTolerance)
}

func TestSearch_MatchesSortedAndCapped(t *testing.T) {
	prices := make([]float64, 0, 50)
	for p := 10.0; p <= 500; p += 10 {
		prices = append(prices, p)
	}

	res, err := search(context.Background(), sourceOf(prices...), request(250, 200, false))
	require.NoError(t, err)

	require.Len(t, res.Matches, 20)
	assert.Equal(t, 250.0, float64(res.Matches[0]))
	assert.Equal(t, []float64{240, 260}, pricesOf(res.Matches[1:3]))
	for i := 1; i < len(res.Matches); i++ {
		prev := math.Abs(float64(res.Matches[i-1]) - 250)
		cur := math.Abs(float64(res.Matches[i]) - 250)
		assert.LessOrEqual(t, prev, cur, "match %d out of order", i)
	}

	res, err = search(context.Background(), sourceOf(prices...), request(250, 200, false), pricesearch.WithMaxResults(3))
	require.NoError(t, err)
	assert.Equal(t, []float64{250, 240, 260}, pricesOf(res.Matches))
}

func TestSearch_Properties(t *testing.T) {
	domain := []float64{120, 130, 480, 900}
	src := sourceOf(domain...)

	for target := 0.0; target <= 1100; target += 37 {
		for _, tol := range []float64{0, 1, 5, 50} {
			withinTol := false
			for _, p := range domain {
				if math.Abs(p-target) <= tol {
					withinTol = true
				}
			}

			fixed, err := search(context.Background(), src, request(target, tol, false))
			require.NoError(t, err)
			assert.Equal(t, withinTol, len(fixed.Matches) > 0, "target=%v tol=%v", target, tol)
			assert.Equal(t, tol, fixed.FinalTolerance)
			assert.LessOrEqual(t, len(fixed.Matches), 20)

			adaptive, err := search(context.Background(), src, request(target, tol, true))
			require.NoError(t, err)
			assert.NotEmpty(t, adaptive.Matches, "target=%v tol=%v", target, tol)
			assert.GreaterOrEqual(t, adaptive.FinalTolerance, tol)
			for i := 1; i < len(adaptive.Matches); i++ {
				assert.LessOrEqual(t,
					math.Abs(float64(adaptive.Matches[i-1])-target),
					math.Abs(float64(adaptive.Matches[i])-target))
			}
		}
	}
}

func TestSearch_Idempotent(t *testing.T) {
	src := sourceOf(310, 90, 205, 195, 205, 400, 12)
	req := request(200, 15, true)

	first, err := search(context.Background(), src, req)
	require.NoError(t, err)
	second, err := search(context.Background(), src, req)
	require.NoError(t, err)

	assert.Equal(t, first.Matches, second.Matches)
}

func TestSearch_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  pricesearch.Request[noFilter]
	}{
		{"negative target", request(-1, 10, false)},
		{"negative tolerance", request(100, -0.5, false)},
		{"nan target", request(math.NaN(), 10, false)},
		{"infinite tolerance", request(100, math.Inf(1), true)},
		{"zero iterations", pricesearch.Request[noFilter]{TargetPrice: 100, Tolerance: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubSource{}
			res, err := pricesearch.Search[fare, noFilter](context.Background(), src, tt.req)

			assert.Nil(t, res)
			assert.ErrorIs(t, err, pricesearch.ErrInvalidRequest)
			assert.Zero(t, src.calls, "source must not be queried")
		})
	}
}

func TestSearch_SourceUnavailable(t *testing.T) {
	boom := errors.New("connection refused")

	for name, src := range map[string]*stubSource{
		"bounds": {boundsErr: boom},
		"range":  {queryErr: boom},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := pricesearch.Search[fare, noFilter](context.Background(), src, request(150, 5, true))

			assert.Nil(t, res)
			assert.ErrorIs(t, err, pricesearch.ErrSourceUnavailable)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestSearch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := search(ctx, sourceOf(100, 200), request(150, 5, false))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_Trace(t *testing.T) {
	src := sourceOf(100, 150, 200, 250, 300)

	res, err := search(context.Background(), src, request(200, 10, false))
	require.NoError(t, err)
	assert.Nil(t, res.Steps)
	assert.Nil(t, res.Histogram)

	req := request(200, 10, false)
	req.CollectTrace = true
	res, err = search(context.Background(), src, req)
	require.NoError(t, err)

	require.Len(t, res.Steps, 1)
	step := res.Steps[0]
	assert.Equal(t, 1, step.Iteration)
	assert.Equal(t, 200.0, step.Probe)
	assert.Equal(t, 100.0, step.Low)
	assert.Equal(t, 300.0, step.High)
	assert.Equal(t, 190.0, step.BandLow)
	assert.Equal(t, 210.0, step.BandHigh)
	assert.Equal(t, 1, step.MatchesAtStep)
	require.NotNil(t, step.ClosestPrice)
	assert.Equal(t, 200.0, *step.ClosestPrice)

	require.NotNil(t, res.Histogram)
	total := 0
	for _, c := range res.Histogram.Counts {
		total += c
	}
	assert.Equal(t, 5, total)
	assert.Len(t, res.Histogram.BinEdges, 21)
	assert.Equal(t, 200.0, res.Histogram.TargetPrice)
}

func TestSearch_TraceCoversEveryQueryAfterBounds(t *testing.T) {
	req := request(300, 20, true)
	req.CollectTrace = true

	res, err := search(context.Background(), sourceOf(100, 600), req)
	require.NoError(t, err)

	assert.Len(t, res.Steps, res.Queries-1)
	for i, st := range res.Steps {
		assert.Equal(t, i+1, st.Iteration)
	}
}

func TestSearch_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	_, err := search(context.Background(), sourceOf(100, 200), request(150, 60, false), pricesearch.WithLogger(logger))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "price search finished")
}
