// Package pricesearch finds records priced near a target price.
//
// A classic binary search needs a sorted array and an equality test, but a
// target price rarely exists in the data. Search instead probes price bands
// around the midpoint of a shrinking window, steering the window toward the
// target, and optionally widens the band until something is found.
package pricesearch

import (
	"context"
	"math"
	"sort"
	"time"
)

// Validate rejects requests that cannot be searched.
func (r Request[F]) Validate() error {
	if err := validatePrices(r.TargetPrice, r.Tolerance); err != nil {
		return err
	}
	if r.MaxIterations <= 0 {
		return invalidf("max iterations must be positive, got %d", r.MaxIterations)
	}
	return nil
}

func validatePrices(target, tolerance float64) error {
	switch {
	case math.IsNaN(target) || math.IsInf(target, 0):
		return invalidf("target price must be a finite number")
	case target < 0:
		return invalidf("target price must be non-negative, got %v", target)
	case math.IsNaN(tolerance) || math.IsInf(tolerance, 0):
		return invalidf("tolerance must be a finite number")
	case tolerance < 0:
		return invalidf("tolerance must be non-negative, got %v", tolerance)
	}
	return nil
}

// Search runs a price-proximity search of src for req.
//
// Matches are ordered by distance to the target price and capped at the
// configured maximum (20 by default). An empty domain, or a target outside the
// domain without adaptive tolerance, is an empty result rather than an error.
// Source failures are wrapped in ErrSourceUnavailable.
func Search[R Pricer, F any](ctx context.Context, src Source[R, F], req Request[F], opts ...Option) (*Result[R], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s := &searcher[R, F]{
		src:  src,
		req:  req,
		opts: buildOptions(opts),
		res: &Result[R]{
			Matches:          []R{},
			InitialTolerance: req.Tolerance,
			FinalTolerance:   req.Tolerance,
			Phase:            PhaseNone,
		},
		bestDiff: math.Inf(1),
	}

	start := time.Now()
	err := s.run(ctx)
	s.res.Elapsed = time.Since(start)
	if err != nil {
		return nil, err
	}

	s.opts.logger.Debug().
		Float64("target_price", req.TargetPrice).
		Float64("final_tolerance", s.res.FinalTolerance).
		Int("matches", len(s.res.Matches)).
		Int("iterations", s.res.Iterations).
		Int("queries", s.res.Queries).
		Str("phase", string(s.res.Phase)).
		Dur("elapsed", s.res.Elapsed).
		Msg("price search finished")

	return s.res, nil
}

// searcher holds the per-call state of one Search.
type searcher[R Pricer, F any] struct {
	src  Source[R, F]
	req  Request[F]
	opts options
	res  *Result[R]

	best     R
	haveBest bool
	bestDiff float64
}

func (s *searcher[R, F]) run(ctx context.Context) error {
	log := s.opts.logger
	target := s.req.TargetPrice
	tol := s.req.Tolerance

	bounds, ok, err := s.src.PriceBounds(ctx, s.req.Filter)
	s.res.Queries++
	if err != nil {
		return unavailable("price bounds", err)
	}
	if !ok {
		log.Debug().Msg("no records match the filter")
		return nil
	}
	lo, hi := bounds.Min, bounds.Max
	s.res.DomainMin, s.res.DomainMax = &lo, &hi

	if target < bounds.Min-tol || target > bounds.Max+tol {
		if !s.req.AdaptiveTolerance {
			log.Debug().
				Float64("target_price", target).
				Float64("min_price", bounds.Min).
				Float64("max_price", bounds.Max).
				Msg("target price outside available range")
			return nil
		}
		nearer := bounds.Min - target
		if target > bounds.Max {
			nearer = target - bounds.Max
		}
		tol = math.Max(tol, nearer)
		log.Debug().Float64("tolerance", tol).Msg("tolerance widened to reach the price range")
	}

	accepted, err := s.step(ctx, bounds, tol)
	if err != nil {
		return err
	}
	phase := PhaseStepping

	if accepted == nil {
		accepted, err = s.probe(ctx, target-tol, target+tol, tol)
		if err != nil {
			return err
		}
		phase = PhaseDirect
	}

	if accepted == nil && s.req.AdaptiveTolerance {
		var widened float64
		accepted, widened, err = s.widen(ctx, bounds, tol)
		if err != nil {
			return err
		}
		if accepted != nil {
			tol = widened
			phase = PhaseWidening
		}
	}

	if accepted == nil && s.req.AdaptiveTolerance && s.haveBest {
		accepted = []R{s.best}
		phase = PhaseBestSoFar
	}

	if s.req.AdaptiveTolerance {
		s.res.FinalTolerance = tol
	}
	if accepted == nil {
		return nil
	}

	s.res.Matches = rankByDistance(accepted, target, s.opts.maxResults)
	s.res.Phase = phase
	s.res.FoundWithinInitialTolerance = math.Abs(s.res.Matches[0].PriceValue()-target) <= s.req.Tolerance

	if s.req.CollectTrace {
		s.res.Histogram = s.histogram(ctx)
	}
	return nil
}

// step narrows [bounds.Min, bounds.Max] toward the target, probing a band of
// width 2*tol around each midpoint. It returns the last band whose closest
// record was within tol of the target.
func (s *searcher[R, F]) step(ctx context.Context, bounds Bounds, tol float64) ([]R, error) {
	target := s.req.TargetPrice
	low, high := bounds.Min, bounds.Max
	var accepted []R

	for s.res.Iterations < s.req.MaxIterations && low <= high {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.res.Iterations++
		mid := (low + high) / 2

		matches, err := s.src.QueryPriceRange(ctx, s.req.Filter, mid-tol, mid+tol)
		s.res.Queries++
		if err != nil {
			return nil, unavailable("query price range", err)
		}

		closest, diff, found := closestTo(matches, target)
		s.trace(low, high, mid, tol, matches, closest, found)

		if found {
			s.consider(closest, diff)
			if diff <= tol {
				accepted = matches
				s.opts.logger.Debug().
					Int("iteration", s.res.Iterations).
					Float64("probe_price", mid).
					Int("matches", len(matches)).
					Msg("band within tolerance")
				if diff <= tol*tightShare {
					break
				}
			}
		}

		if mid < target {
			low = mid + s.opts.epsilon
		} else {
			high = mid - s.opts.epsilon
		}
	}
	return accepted, nil
}

// probe queries the band centred on the target itself.
func (s *searcher[R, F]) probe(ctx context.Context, lo, hi, tol float64) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := s.src.QueryPriceRange(ctx, s.req.Filter, lo, hi)
	s.res.Queries++
	if err != nil {
		return nil, unavailable("query price range", err)
	}
	closest, diff, found := closestTo(matches, s.req.TargetPrice)
	s.trace(lo, hi, s.req.TargetPrice, tol, matches, closest, found)
	if !found {
		return nil, nil
	}
	s.consider(closest, diff)
	return matches, nil
}

// widen grows the tolerance geometrically until the band around the target
// holds a record. The last round always uses the ceiling, which covers the
// whole domain, so a non-empty domain always yields matches.
func (s *searcher[R, F]) widen(ctx context.Context, bounds Bounds, tol float64) ([]R, float64, error) {
	target := s.req.TargetPrice
	farther := math.Max(target-bounds.Min, bounds.Max-target)
	ceiling := math.Max(farther+s.opts.epsilon, tol*4)

	w := math.Max(tol*widenFactor, ceiling/math.Pow(widenFactor, maxWidenRounds-1))
	for round := 0; round < maxWidenRounds; round++ {
		w = math.Min(w, ceiling)
		s.opts.logger.Debug().Float64("tolerance", w).Msg("widening tolerance")

		matches, err := s.probe(ctx, target-w, target+w, w)
		if err != nil {
			return nil, 0, err
		}
		if matches != nil {
			return matches, w, nil
		}
		if w >= ceiling {
			break
		}
		w *= widenFactor
	}
	return nil, tol, nil
}

func (s *searcher[R, F]) consider(r R, diff float64) {
	if diff < s.bestDiff {
		s.best, s.bestDiff, s.haveBest = r, diff, true
	}
}

func (s *searcher[R, F]) trace(low, high, probe, tol float64, matches []R, closest R, found bool) {
	if !s.req.CollectTrace {
		return
	}
	st := Step{
		Iteration:     len(s.res.Steps) + 1,
		Low:           low,
		High:          high,
		Probe:         probe,
		Tolerance:     tol,
		BandLow:       probe - tol,
		BandHigh:      probe + tol,
		MatchesAtStep: len(matches),
	}
	if found {
		p := closest.PriceValue()
		st.ClosestPrice = &p
	}
	s.res.Steps = append(s.res.Steps, st)
}

func (s *searcher[R, F]) histogram(ctx context.Context) *Histogram {
	lister, ok := any(s.src).(PriceLister[F])
	if !ok {
		return nil
	}
	prices, err := lister.Prices(ctx, s.req.Filter)
	if err != nil {
		s.opts.logger.Warn().Err(err).Msg("histogram prices unavailable")
		return nil
	}
	return BuildHistogram(prices, s.opts.histogramBins, s.req.TargetPrice)
}

func closestTo[R Pricer](records []R, target float64) (R, float64, bool) {
	var best R
	bestDiff := math.Inf(1)
	for _, r := range records {
		if d := math.Abs(r.PriceValue() - target); d < bestDiff {
			best, bestDiff = r, d
		}
	}
	return best, bestDiff, len(records) > 0
}

// rankByDistance returns a sorted copy of records, nearest to target first.
// Equal distances order by price so repeated searches agree.
func rankByDistance[R Pricer](records []R, target float64, limit int) []R {
	out := make([]R, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		di := math.Abs(out[i].PriceValue() - target)
		dj := math.Abs(out[j].PriceValue() - target)
		if di != dj {
			return di < dj
		}
		return out[i].PriceValue() < out[j].PriceValue()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
