package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"tripfare/pricesearch"
)

// RetrySource retries failed queries against the wrapped source with
// exponential backoff. Context cancellation is never retried.
type RetrySource[R pricesearch.Pricer, F any] struct {
	next     pricesearch.Source[R, F]
	attempts uint64
	initial  time.Duration
	logger   zerolog.Logger
}

// NewRetrySource wraps next. attempts counts the first try; values below 1
// are treated as 1.
func NewRetrySource[R pricesearch.Pricer, F any](next pricesearch.Source[R, F], attempts int, initial time.Duration, logger zerolog.Logger) *RetrySource[R, F] {
	if attempts < 1 {
		attempts = 1
	}
	return &RetrySource[R, F]{
		next:     next,
		attempts: uint64(attempts),
		initial:  initial,
		logger:   logger,
	}
}

func (s *RetrySource[R, F]) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initial
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, s.attempts-1), ctx)
}

func (s *RetrySource[R, F]) do(ctx context.Context, op string, fn func() error) error {
	wrapped := func() error {
		err := fn()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		s.logger.Warn().Err(err).Str("op", op).Dur("retry_in", next).Msg("records source query failed")
	}
	return backoff.RetryNotify(wrapped, s.policy(ctx), notify)
}

// PriceBounds implements pricesearch.Source.
func (s *RetrySource[R, F]) PriceBounds(ctx context.Context, filter F) (pricesearch.Bounds, bool, error) {
	var (
		b  pricesearch.Bounds
		ok bool
	)
	err := s.do(ctx, "price_bounds", func() error {
		var err error
		b, ok, err = s.next.PriceBounds(ctx, filter)
		return err
	})
	return b, ok, err
}

// QueryPriceRange implements pricesearch.Source.
func (s *RetrySource[R, F]) QueryPriceRange(ctx context.Context, filter F, lo, hi float64) ([]R, error) {
	var out []R
	err := s.do(ctx, "query_price_range", func() error {
		var err error
		out, err = s.next.QueryPriceRange(ctx, filter, lo, hi)
		return err
	})
	return out, err
}

// Prices implements pricesearch.PriceLister when the wrapped source does.
func (s *RetrySource[R, F]) Prices(ctx context.Context, filter F) ([]float64, error) {
	lister, ok := s.next.(pricesearch.PriceLister[F])
	if !ok {
		return nil, errNoPriceListing
	}
	var out []float64
	err := s.do(ctx, "prices", func() error {
		var err error
		out, err = lister.Prices(ctx, filter)
		return err
	})
	return out, err
}

var errNoPriceListing = errors.New("source cannot list prices")
