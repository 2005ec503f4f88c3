package pricesearch

import (
	"context"
	"math"
	"time"
)

// LinearResult is the outcome of a full scan.
type LinearResult[R Pricer] struct {
	Matches []R           `json:"matches"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Queries int           `json:"queries"`
}

// LinearSearch scans the whole filtered domain and keeps records within
// tolerance of the target. It never widens and is the baseline Compare
// measures Search against.
func LinearSearch[R Pricer, F any](ctx context.Context, src Source[R, F], req Request[F], opts ...Option) (*LinearResult[R], error) {
	if err := validatePrices(req.TargetPrice, req.Tolerance); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	start := time.Now()
	res := &LinearResult[R]{Matches: []R{}}

	bounds, ok, err := src.PriceBounds(ctx, req.Filter)
	res.Queries++
	if err != nil {
		return nil, unavailable("price bounds", err)
	}
	if ok {
		all, err := src.QueryPriceRange(ctx, req.Filter, bounds.Min, bounds.Max)
		res.Queries++
		if err != nil {
			return nil, unavailable("query price range", err)
		}
		within := make([]R, 0, len(all))
		for _, r := range all {
			if math.Abs(r.PriceValue()-req.TargetPrice) <= req.Tolerance {
				within = append(within, r)
			}
		}
		res.Matches = rankByDistance(within, req.TargetPrice, o.maxResults)
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

// AlgorithmStats summarises one side of a Comparison.
type AlgorithmStats struct {
	Algorithm      string     `json:"algorithm"`
	MatchesFound   int        `json:"matches_found"`
	TimeMS         float64    `json:"time_ms"`
	Iterations     int        `json:"iterations"`
	Queries        int        `json:"queries"`
	FinalTolerance float64    `json:"final_tolerance,omitempty"`
	Adaptive       bool       `json:"adaptive_tolerance_used,omitempty"`
	Steps          []Step     `json:"search_steps,omitempty"`
	Histogram      *Histogram `json:"histogram_data,omitempty"`
}

// Comparison reports how Search and LinearSearch fared on the same request.
type Comparison struct {
	TargetPrice      float64        `json:"target_price"`
	Tolerance        float64        `json:"tolerance"`
	Binary           AlgorithmStats `json:"binary_search"`
	Linear           AlgorithmStats `json:"linear_search"`
	TimeRatio        float64        `json:"time_ratio"`
	LinearIsFaster   bool           `json:"linear_is_faster"`
	DifferenceMS     float64        `json:"difference_ms"`
	ResultDifference int            `json:"result_difference"`
}

// Compare runs Search (with tracing on) and LinearSearch for req.
func Compare[R Pricer, F any](ctx context.Context, src Source[R, F], req Request[F], opts ...Option) (*Comparison, error) {
	req.CollectTrace = true
	bin, err := Search(ctx, src, req, opts...)
	if err != nil {
		return nil, err
	}
	lin, err := LinearSearch(ctx, src, req, opts...)
	if err != nil {
		return nil, err
	}

	binMS := millis(bin.Elapsed)
	linMS := millis(lin.Elapsed)
	c := &Comparison{
		TargetPrice: req.TargetPrice,
		Tolerance:   req.Tolerance,
		Binary: AlgorithmStats{
			Algorithm:      "binary_search",
			MatchesFound:   len(bin.Matches),
			TimeMS:         binMS,
			Iterations:     bin.Iterations,
			Queries:        bin.Queries,
			FinalTolerance: bin.FinalTolerance,
			Adaptive:       req.AdaptiveTolerance,
			Steps:          bin.Steps,
			Histogram:      bin.Histogram,
		},
		Linear: AlgorithmStats{
			Algorithm:    "linear_search",
			MatchesFound: len(lin.Matches),
			TimeMS:       linMS,
			Iterations:   1,
			Queries:      lin.Queries,
		},
		LinearIsFaster: linMS < binMS,
		DifferenceMS:   math.Abs(linMS - binMS),
	}
	if binMS > 0 {
		c.TimeRatio = linMS / binMS
	}
	c.ResultDifference = len(bin.Matches) - len(lin.Matches)
	if c.ResultDifference < 0 {
		c.ResultDifference = -c.ResultDifference
	}
	return c, nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
