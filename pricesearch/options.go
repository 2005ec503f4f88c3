package pricesearch

import "github.com/rs/zerolog"

const (
	defaultEpsilon       = 0.01
	defaultMaxResults    = 20
	defaultHistogramBins = 20

	// widening multiplies the tolerance by this factor per round
	widenFactor    = 1.5
	maxWidenRounds = 8

	// a step whose closest match is within this share of the tolerance ends the search
	tightShare = 0.2
)

type options struct {
	logger        zerolog.Logger
	epsilon       float64
	maxResults    int
	histogramBins int
}

// Option configures Search, LinearSearch and Compare.
type Option func(*options)

// WithLogger sets the logger used for search progress. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEpsilon sets the step applied to the window bounds after each probe.
func WithEpsilon(eps float64) Option {
	return func(o *options) {
		if eps > 0 {
			o.epsilon = eps
		}
	}
}

// WithMaxResults caps the number of returned matches.
func WithMaxResults(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxResults = n
		}
	}
}

// WithHistogramBins sets the bin count of the trace histogram.
func WithHistogramBins(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.histogramBins = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:        zerolog.Nop(),
		epsilon:       defaultEpsilon,
		maxResults:    defaultMaxResults,
		histogramBins: defaultHistogramBins,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
