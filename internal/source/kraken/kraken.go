package kraken

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pricefeed/internal/httpx"
	"pricefeed/internal/source"
)

const name = "kraken"

// Source fetches spot prices from the Kraken public ticker endpoint.
// If the direct pair is not listed it retries once with the swapped pair and
// returns the reciprocal. That fallback is local to this adapter.
type Source struct {
	BaseURL string
	Client  *httpx.Client
}

func New(client *httpx.Client) *Source {
	return &Source{BaseURL: "https://api.kraken.com", Client: client}
}

func (s *Source) Name() string { return name }

func (s *Source) Fetch(ctx context.Context, base, quote string) (source.Quote, error) {
	direct, ferr := s.fetchPair(ctx, base, quote)
	if ferr == nil {
		return direct, nil
	}
	reverse, rerr := s.fetchPair(ctx, quote, base)
	if rerr != nil {
		// Report the direct attempt; the fallback is best-effort.
		return source.Quote{}, ferr
	}
	return source.Quote{
		Source:        name,
		Base:          base,
		Quote:         quote,
		Price:         1 / reverse.Price,
		Inverted:      true,
		OriginalPrice: reverse.Price,
		Timestamp:     reverse.Timestamp,
	}, nil
}

func (s *Source) fetchPair(ctx context.Context, base, quote string) (source.Quote, *source.Failure) {
	url := fmt.Sprintf("%s/0/public/Ticker?pair=%s%s", s.BaseURL, base, quote)
	var data struct {
		Error  []string `json:"error"`
		Result map[string]struct {
			C []string `json:"c"`
		} `json:"result"`
	}
	if f := source.FetchJSON(ctx, s.Client, name, url, &data); f != nil {
		return source.Quote{}, f
	}
	if len(data.Error) > 0 {
		return source.Quote{}, source.Failf(name, source.ReasonNotFound, "%s", strings.Join(data.Error, "; "))
	}
	for _, v := range data.Result {
		if len(v.C) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(v.C[0], 64)
		if err != nil {
			return source.Quote{}, source.Failf(name, source.ReasonMalformed, "last %q: %v", v.C[0], err)
		}
		if !source.Positive(price) {
			return source.Quote{}, source.Failf(name, source.ReasonZeroPrice, "price %v for %s/%s", price, base, quote)
		}
		return source.Quote{Source: name, Base: base, Quote: quote, Price: price, Timestamp: time.Now().UTC()}, nil
	}
	return source.Quote{}, source.Failf(name, source.ReasonNotFound, "no ticker result for %s%s", base, quote)
}
