package okx

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"pricefeed/internal/httpx"
	"pricefeed/internal/source"
)

const name = "okx"

// Source fetches spot prices from the OKX public market ticker endpoint.
type Source struct {
	BaseURL string
	Client  *httpx.Client
}

func New(client *httpx.Client) *Source {
	return &Source{BaseURL: "https://www.okx.com", Client: client}
}

func (s *Source) Name() string { return name }

func (s *Source) Fetch(ctx context.Context, base, quote string) (source.Quote, error) {
	url := fmt.Sprintf("%s/api/v5/market/ticker?instId=%s-%s", s.BaseURL, base, quote)
	var data struct {
		Data []struct {
			Last string `json:"last"`
		} `json:"data"`
	}
	if f := source.FetchJSON(ctx, s.Client, name, url, &data); f != nil {
		return source.Quote{}, f
	}
	if len(data.Data) == 0 || data.Data[0].Last == "" {
		return source.Quote{}, source.Failf(name, source.ReasonNotFound, "no ticker for %s-%s", base, quote)
	}
	price, err := strconv.ParseFloat(data.Data[0].Last, 64)
	if err != nil {
		return source.Quote{}, source.Failf(name, source.ReasonMalformed, "last %q: %v", data.Data[0].Last, err)
	}
	if !source.Positive(price) {
		return source.Quote{}, source.Failf(name, source.ReasonZeroPrice, "price %v for %s/%s", price, base, quote)
	}
	return source.Quote{Source: name, Base: base, Quote: quote, Price: price, Timestamp: time.Now().UTC()}, nil
}
