package pricesearch

// BuildHistogram bins prices into equal-width buckets over [min, max]. The last
// bucket includes its right edge. A single distinct price gets a unit-wide
// range centred on it. Returns nil for no prices.
func BuildHistogram(prices []float64, bins int, target float64) *Histogram {
	if len(prices) == 0 || bins <= 0 {
		return nil
	}

	lo, hi := prices[0], prices[0]
	for _, p := range prices[1:] {
		lo = min(lo, p)
		hi = max(hi, p)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi

	counts := make([]int, bins)
	for _, p := range prices {
		i := int((p - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		counts[i]++
	}

	return &Histogram{Counts: counts, BinEdges: edges, TargetPrice: target}
}
