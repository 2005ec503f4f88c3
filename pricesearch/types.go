package pricesearch

import (
	"context"
	"time"
)

// DefaultMaxIterations bounds the stepping phase when the caller does not choose.
const DefaultMaxIterations = 10

// Pricer is any record that carries a numeric price.
type Pricer interface {
	PriceValue() float64
}

// Bounds is the price domain of a filtered record set.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns Max - Min.
func (b Bounds) Span() float64 {
	return b.Max - b.Min
}

// Source supplies price-bounded record queries. Implementations own their
// retry and timeout behaviour; the search never retries.
type Source[R Pricer, F any] interface {
	// PriceBounds reports the min/max price of the filtered domain. ok is
	// false when no record matches the filter.
	PriceBounds(ctx context.Context, filter F) (b Bounds, ok bool, err error)

	// QueryPriceRange returns records matching filter with price in [lo, hi].
	QueryPriceRange(ctx context.Context, filter F, lo, hi float64) ([]R, error)
}

// PriceLister is implemented by sources that can list every price in the
// filtered domain. It feeds the optional histogram.
type PriceLister[F any] interface {
	Prices(ctx context.Context, filter F) ([]float64, error)
}

// Request describes a single price-proximity search.
type Request[F any] struct {
	TargetPrice       float64 `json:"target_price"`
	Tolerance         float64 `json:"tolerance"`
	Filter            F       `json:"filter"`
	AdaptiveTolerance bool    `json:"adaptive_tolerance"`
	MaxIterations     int     `json:"max_iterations"`
	CollectTrace      bool    `json:"collect_vis_data"`
}

// NewRequest returns a request with DefaultMaxIterations.
func NewRequest[F any](target, tolerance float64, filter F) Request[F] {
	return Request[F]{
		TargetPrice:   target,
		Tolerance:     tolerance,
		Filter:        filter,
		MaxIterations: DefaultMaxIterations,
	}
}

// Phase names the part of the search that produced the final matches.
type Phase string

const (
	PhaseNone      Phase = "none"
	PhaseStepping  Phase = "stepping"
	PhaseDirect    Phase = "direct_probe"
	PhaseWidening  Phase = "adaptive_widening"
	PhaseBestSoFar Phase = "best_so_far"
)

// Step is one probe of the stepping phase.
type Step struct {
	Iteration     int      `json:"iteration"`
	Low           float64  `json:"boundary_low"`
	High          float64  `json:"boundary_high"`
	Probe         float64  `json:"probe_price"`
	Tolerance     float64  `json:"tolerance"`
	BandLow       float64  `json:"band_low"`
	BandHigh      float64  `json:"band_high"`
	MatchesAtStep int      `json:"matches_at_step"`
	ClosestPrice  *float64 `json:"closest_price,omitempty"`
}

// Histogram is an equal-width price histogram of the filtered domain.
type Histogram struct {
	Counts      []int     `json:"counts"`
	BinEdges    []float64 `json:"bin_edges"`
	TargetPrice float64   `json:"target_price"`
}

// Result is the outcome of Search. An empty Matches slice is a valid result.
type Result[R Pricer] struct {
	Matches                     []R           `json:"matches"`
	Steps                       []Step        `json:"steps,omitempty"`
	InitialTolerance            float64       `json:"initial_tolerance"`
	FinalTolerance              float64       `json:"final_tolerance"`
	FoundWithinInitialTolerance bool          `json:"found_within_initial_tolerance"`
	Elapsed                     time.Duration `json:"elapsed_ns"`
	DomainMin                   *float64      `json:"price_domain_min,omitempty"`
	DomainMax                   *float64      `json:"price_domain_max,omitempty"`
	Iterations                  int           `json:"iterations"`
	Queries                     int           `json:"queries"`
	Phase                       Phase         `json:"phase"`
	Histogram                   *Histogram    `json:"histogram,omitempty"`
}
