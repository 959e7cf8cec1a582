// Package resolve picks the best available quote for an asset pair across
// several sources, caching successes and backing off known-bad sources.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pricefeed/internal/pricecache"
	"pricefeed/internal/source"
)

// ErrInvalidSource reports a requested source that is not a known adapter.
var ErrInvalidSource = errors.New("invalid source")

// ErrNoData reports that no source produced a usable quote for the pair.
var ErrNoData = errors.New("no data")

// SourceNoDataError reports that an explicitly requested source produced no
// quote, independent of the other sources' availability.
type SourceNoDataError struct {
	Source string
	Base   string
	Quote  string
}

func (e *SourceNoDataError) Error() string {
	return fmt.Sprintf("no data found for %s on %s/%s", e.Source, e.Base, e.Quote)
}

// Config wires a Resolver.
type Config struct {
	// Sources in priority order, exchanges before the aggregator.
	Sources []source.Source
	// Aggregator names the source exempt from failure suppression. It is the
	// fallback of last resort and has no sibling to fall back to, so it is
	// always attempted.
	Aggregator string
	Prices     *pricecache.Prices
	Failures   *pricecache.Failures
	// Intermediate is the default triangulation pivot asset.
	Intermediate string
	Logger       *zap.Logger
}

// Resolver resolves (base, quote) pairs to priced quotes.
type Resolver struct {
	sources      []source.Source
	byName       map[string]source.Source
	aggregator   string
	prices       *pricecache.Prices
	failures     *pricecache.Failures
	intermediate string
	logger       *zap.Logger
}

func New(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]source.Source, len(cfg.Sources))
	for _, s := range cfg.Sources {
		byName[s.Name()] = s
	}
	return &Resolver{
		sources:      cfg.Sources,
		byName:       byName,
		aggregator:   cfg.Aggregator,
		prices:       cfg.Prices,
		failures:     cfg.Failures,
		intermediate: source.Normalize(cfg.Intermediate),
		logger:       logger,
	}
}

// Result is a resolved price: the selected quote plus every quote that
// contributed to the decision.
type Result struct {
	Best   source.Quote
	Quotes []source.Quote
	// Cached is true when resolution made no adapter calls.
	Cached bool
}

// Resolve finds quotes for base/quote. With a requested source the candidate
// set is that single adapter and priority ordering is bypassed; otherwise
// all sources are consulted in priority order and, when none of them has the
// pair, a triangulated quote is attempted through the intermediate asset.
func (r *Resolver) Resolve(ctx context.Context, base, quote, requested, intermediate string) (Result, error) {
	base = source.Normalize(base)
	quote = source.Normalize(quote)

	candidates := r.sources
	explicit := false
	if requested != "" {
		s, ok := r.byName[strings.ToLower(strings.TrimSpace(requested))]
		if !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrInvalidSource, requested)
		}
		candidates = []source.Source{s}
		explicit = true
	}

	quotes, fetched := r.gather(ctx, candidates, base, quote)

	if len(quotes) == 0 && !explicit {
		pivot := r.intermediate
		if intermediate != "" {
			pivot = source.Normalize(intermediate)
		}
		if derived, ok := r.derive(ctx, base, quote, pivot); ok {
			quotes = append(quotes, derived)
			fetched = true
		}
	}

	if len(quotes) == 0 {
		if explicit {
			return Result{}, &SourceNoDataError{Source: candidates[0].Name(), Base: base, Quote: quote}
		}
		return Result{}, fmt.Errorf("%w for %s/%s", ErrNoData, base, quote)
	}
	return Result{Best: bestOf(quotes), Quotes: quotes, Cached: !fetched}, nil
}

// gather collects at most one quote per candidate: a live cache entry, or a
// fresh fetch when the source is not failure-suppressed. Fetches for missing
// sources run concurrently; the slot order keeps priority for tie-breaking.
// The second return value reports whether any adapter was invoked.
func (r *Resolver) gather(ctx context.Context, candidates []source.Source, base, quote string) ([]source.Quote, bool) {
	type slot struct {
		q  source.Quote
		ok bool
	}
	slots := make([]slot, len(candidates))
	fetched := false

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range candidates {
		if q, ok := r.prices.Lookup(s.Name(), base, quote); ok {
			r.logger.Debug("cache hit",
				zap.String("source", s.Name()), zap.String("base", base), zap.String("quote", quote))
			slots[i] = slot{q, true}
			continue
		}
		if s.Name() != r.aggregator && r.failures.Suppressed(s.Name(), base, quote) {
			r.logger.Info("skipping suppressed source",
				zap.String("source", s.Name()), zap.String("base", base), zap.String("quote", quote))
			continue
		}
		fetched = true
		i, s := i, s
		g.Go(func() error {
			q, err := fetchSafe(gctx, s, base, quote)
			if err != nil {
				if s.Name() != r.aggregator {
					r.failures.Record(s.Name(), base, quote)
				}
				r.logger.Warn("source fetch failed",
					zap.String("source", s.Name()), zap.String("base", base), zap.String("quote", quote), zap.Error(err))
				return nil
			}
			r.prices.Store(q)
			slots[i] = slot{q, true}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]source.Quote, 0, len(slots))
	for _, sl := range slots {
		if sl.ok {
			out = append(out, sl.q)
		}
	}
	return out, fetched
}

// fetchSafe converts a panicking adapter into a Failure so one bad source
// cannot take down the whole resolution.
func fetchSafe(ctx context.Context, s source.Source, base, quote string) (q source.Quote, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = source.Failf(s.Name(), source.ReasonTransport, "panic: %v", rec)
		}
	}()
	return s.Fetch(ctx, base, quote)
}

// bestOf selects the strictly highest price; the left-to-right scan only
// replaces on strictly greater, so ties keep the earlier-priority source.
func bestOf(quotes []source.Quote) source.Quote {
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.Price > best.Price {
			best = q
		}
	}
	return best
}
