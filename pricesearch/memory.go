package pricesearch

import "context"

// MemorySource serves records from a slice. A nil match function accepts
// every record.
type MemorySource[R Pricer, F any] struct {
	records []R
	match   func(R, F) bool
}

// NewMemorySource copies records into a new MemorySource.
func NewMemorySource[R Pricer, F any](records []R, match func(R, F) bool) *MemorySource[R, F] {
	rs := make([]R, len(records))
	copy(rs, records)
	return &MemorySource[R, F]{records: rs, match: match}
}

func (m *MemorySource[R, F]) matches(r R, filter F) bool {
	return m.match == nil || m.match(r, filter)
}

// PriceBounds implements Source.
func (m *MemorySource[R, F]) PriceBounds(ctx context.Context, filter F) (Bounds, bool, error) {
	if err := ctx.Err(); err != nil {
		return Bounds{}, false, err
	}
	var b Bounds
	found := false
	for _, r := range m.records {
		if !m.matches(r, filter) {
			continue
		}
		p := r.PriceValue()
		if !found {
			b = Bounds{Min: p, Max: p}
			found = true
			continue
		}
		b.Min = min(b.Min, p)
		b.Max = max(b.Max, p)
	}
	return b, found, nil
}

// QueryPriceRange implements Source.
func (m *MemorySource[R, F]) QueryPriceRange(ctx context.Context, filter F, lo, hi float64) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []R
	for _, r := range m.records {
		if p := r.PriceValue(); p >= lo && p <= hi && m.matches(r, filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Prices implements PriceLister.
func (m *MemorySource[R, F]) Prices(ctx context.Context, filter F) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []float64
	for _, r := range m.records {
		if m.matches(r, filter) {
			out = append(out, r.PriceValue())
		}
	}
	return out, nil
}
