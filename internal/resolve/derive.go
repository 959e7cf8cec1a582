package resolve

import (
	"context"

	"go.uber.org/zap"

	"pricefeed/internal/source"
)

// derive composes a price for base/quote through the pivot asset: it
// resolves both legs as "asset per pivot" and divides them, cancelling the
// pivot. Both legs go through the direct path only (no recursion back into
// triangulation) and a missing leg fails the whole derivation — a partial
// result is never surfaced. A leg cached before the other leg fails stays
// cached: it is a valid independent fact.
func (r *Resolver) derive(ctx context.Context, base, quote, pivot string) (source.Quote, bool) {
	if pivot == "" || base == pivot || quote == pivot {
		return source.Quote{}, false
	}

	leg1, ok := r.direct(ctx, base, pivot)
	if !ok {
		return source.Quote{}, false
	}
	leg2, ok := r.direct(ctx, quote, pivot)
	if !ok {
		return source.Quote{}, false
	}
	if leg2.Price == 0 {
		// Unreachable given the positive-price invariant, but never divide
		// by an upstream value unchecked.
		return source.Quote{}, false
	}

	ts := leg1.Timestamp
	if leg2.Timestamp.Before(ts) {
		ts = leg2.Timestamp
	}
	derived := source.Quote{
		Source:     source.DerivedName,
		Base:       base,
		Quote:      quote,
		Price:      leg1.Price / leg2.Price,
		Timestamp:  ts,
		Components: []source.Quote{leg1, leg2},
	}
	r.logger.Info("derived price via intermediate",
		zap.String("base", base), zap.String("quote", quote), zap.String("intermediate", pivot),
		zap.Float64("price", derived.Price))
	return derived, true
}

// direct resolves the best quote for a pair over the full priority list,
// without triangulation. Derived quotes are never written to the price
// cache; both legs are cached by this path, which captures everything
// durable about the derivation.
func (r *Resolver) direct(ctx context.Context, base, quote string) (source.Quote, bool) {
	quotes, _ := r.gather(ctx, r.sources, base, quote)
	if len(quotes) == 0 {
		return source.Quote{}, false
	}
	return bestOf(quotes), true
}
