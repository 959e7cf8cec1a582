package source

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// DerivedName identifies quotes composed by triangulation rather than
// fetched from an upstream source.
const DerivedName = "derived"

// Quote is the normalized result of one source's fetch attempt.
// Price is the amount of quote-asset per one unit of base-asset and is
// always strictly positive for any quote that leaves an adapter.
type Quote struct {
	Source string  `json:"source"`
	Base   string  `json:"base"`
	Quote  string  `json:"quote"`
	Price  float64 `json:"price"`
	// Inverted is true when Price was computed as 1/OriginalPrice because
	// only the reverse pair was listed.
	Inverted      bool      `json:"inverted"`
	OriginalPrice float64   `json:"original_price,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	// Components holds the two legs of a derived quote, in order; empty for
	// direct quotes.
	Components []Quote `json:"components,omitempty"`
}

// Reason classifies why a fetch attempt produced no usable quote.
type Reason string

const (
	ReasonTransport Reason = "transport-error"
	ReasonMalformed Reason = "malformed-response"
	ReasonNotFound  Reason = "not-found"
	ReasonZeroPrice Reason = "zero-price"
)

// Failure is the only error kind an adapter returns.
type Failure struct {
	Source string
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Source, f.Reason, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Source, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// Failf builds a Failure with a formatted cause.
func Failf(src string, reason Reason, format string, args ...any) *Failure {
	return &Failure{Source: src, Reason: reason, Err: fmt.Errorf(format, args...)}
}

// Source fetches a price quote for one (base, quote) pair of upper-case
// ticker symbols. Implementations issue one network call per Fetch (two for
// sources with a reverse-pair fallback), never write to shared caches, and
// return either a Quote with a positive price or a *Failure — no other
// error kind escapes this boundary.
type Source interface {
	Name() string
	Fetch(ctx context.Context, base, quote string) (Quote, error)
}

// Normalize upper-cases a ticker symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Positive reports whether p is a usable price: strictly positive and finite.
func Positive(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
