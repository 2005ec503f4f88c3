package pricesearch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned before any source query when the request
	// carries a negative or non-finite price or tolerance, or no iterations.
	ErrInvalidRequest = errors.New("invalid search request")

	// ErrSourceUnavailable wraps every failure reported by a Source.
	ErrSourceUnavailable = errors.New("records source unavailable")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, op, err)
}
