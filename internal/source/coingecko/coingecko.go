// Package coingecko implements the aggregator source. Unlike the exchange
// adapters it has to translate ticker symbols to CoinGecko asset ids before
// it can ask for a price, and it falls back to the reverse pair with
// inversion when the direct pair is not listed.
package coingecko

import (
	"context"
	"strings"
	"time"

	"pricefeed/internal/source"
)

// Name is the source identifier used in quotes and the priority list.
const Name = "coingecko"

// Source fetches prices from the CoinGecko simple-price endpoint.
type Source struct {
	client   *Client
	resolver *Resolver
}

func New(client *Client, resolver *Resolver) *Source {
	return &Source{client: client, resolver: resolver}
}

func (s *Source) Name() string { return Name }

// vsCurrency maps a ticker to CoinGecko's vs_currency form. USDT and USDC
// quotes are priced against "usd", which is what the upstream actually
// lists for dollar-pegged pairs.
func vsCurrency(symbol string) string {
	switch strings.ToUpper(symbol) {
	case "USDT", "USDC":
		return "usd"
	}
	return strings.ToLower(symbol)
}

func (s *Source) Fetch(ctx context.Context, base, quote string) (source.Quote, error) {
	if id, ok := s.resolver.Resolve(ctx, base); ok {
		vs := vsCurrency(quote)
		price, found, f := s.client.SimplePrice(ctx, id, vs)
		if f == nil && found && source.Positive(price) {
			return source.Quote{Source: Name, Base: base, Quote: quote, Price: price, Timestamp: time.Now().UTC()}, nil
		}
		// Fall through to the reverse pair on any miss.
	}

	id, ok := s.resolver.Resolve(ctx, quote)
	if !ok {
		return source.Quote{}, source.Failf(Name, source.ReasonNotFound, "no asset id for %s or %s", base, quote)
	}
	vs := vsCurrency(base)
	raw, found, f := s.client.SimplePrice(ctx, id, vs)
	if f != nil {
		return source.Quote{}, f
	}
	if !found {
		return source.Quote{}, source.Failf(Name, source.ReasonNotFound, "no price for %s/%s or %s/%s", base, quote, quote, base)
	}
	if !source.Positive(raw) {
		return source.Quote{}, source.Failf(Name, source.ReasonZeroPrice, "reverse price %v for %s/%s", raw, quote, base)
	}
	return source.Quote{
		Source:        Name,
		Base:          base,
		Quote:         quote,
		Price:         1 / raw,
		Inverted:      true,
		OriginalPrice: raw,
		Timestamp:     time.Now().UTC(),
	}, nil
}
