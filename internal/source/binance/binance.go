package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"pricefeed/internal/httpx"
	"pricefeed/internal/source"
)

const name = "binance"

// Source fetches spot prices from the Binance public ticker endpoint.
type Source struct {
	BaseURL string
	Client  *httpx.Client
}

func New(client *httpx.Client) *Source {
	return &Source{BaseURL: "https://api.binance.com", Client: client}
}

func (s *Source) Name() string { return name }

func (s *Source) Fetch(ctx context.Context, base, quote string) (source.Quote, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s%s", s.BaseURL, base, quote)
	var data struct {
		Price string `json:"price"`
	}
	if f := source.FetchJSON(ctx, s.Client, name, url, &data); f != nil {
		return source.Quote{}, f
	}
	if data.Price == "" {
		return source.Quote{}, source.Failf(name, source.ReasonNotFound, "no price for %s/%s", base, quote)
	}
	price, err := strconv.ParseFloat(data.Price, 64)
	if err != nil {
		return source.Quote{}, source.Failf(name, source.ReasonMalformed, "price %q: %v", data.Price, err)
	}
	if !source.Positive(price) {
		return source.Quote{}, source.Failf(name, source.ReasonZeroPrice, "price %v for %s/%s", price, base, quote)
	}
	return source.Quote{Source: name, Base: base, Quote: quote, Price: price, Timestamp: time.Now().UTC()}, nil
}
