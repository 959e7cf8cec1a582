package coinbase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"pricefeed/internal/httpx"
	"pricefeed/internal/source"
)

const name = "coinbase"

// Source fetches spot prices from the Coinbase public prices endpoint.
type Source struct {
	BaseURL string
	Client  *httpx.Client
}

func New(client *httpx.Client) *Source {
	return &Source{BaseURL: "https://api.coinbase.com", Client: client}
}

func (s *Source) Name() string { return name }

func (s *Source) Fetch(ctx context.Context, base, quote string) (source.Quote, error) {
	url := fmt.Sprintf("%s/v2/prices/%s-%s/spot", s.BaseURL, base, quote)
	var data struct {
		Data struct {
			Amount string `json:"amount"`
		} `json:"data"`
	}
	if f := source.FetchJSON(ctx, s.Client, name, url, &data); f != nil {
		return source.Quote{}, f
	}
	if data.Data.Amount == "" {
		return source.Quote{}, source.Failf(name, source.ReasonNotFound, "no amount for %s-%s", base, quote)
	}
	price, err := strconv.ParseFloat(data.Data.Amount, 64)
	if err != nil {
		return source.Quote{}, source.Failf(name, source.ReasonMalformed, "amount %q: %v", data.Data.Amount, err)
	}
	if !source.Positive(price) {
		return source.Quote{}, source.Failf(name, source.ReasonZeroPrice, "price %v for %s/%s", price, base, quote)
	}
	return source.Quote{Source: name, Base: base, Quote: quote, Price: price, Timestamp: time.Now().UTC()}, nil
}
