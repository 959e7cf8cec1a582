package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"pricefeed/internal/source"
)

const baseURL = "https://api.coingecko.com/api/v3"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=coingecko_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the CoinGecko public API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// ClientOption is a configuration option for the CoinGecko client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new CoinGecko API client.
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Coin is one entry of the /coins/list catalog.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// ListCoins fetches the full asset catalog.
func (c *Client) ListCoins(ctx context.Context) ([]Coin, *source.Failure) {
	var coins []Coin
	if f := c.get(ctx, "/coins/list", &coins); f != nil {
		return nil, f
	}
	return coins, nil
}

// SimplePrice returns the price of the asset id in vsCurrency and whether
// the upstream listed that combination at all.
func (c *Client) SimplePrice(ctx context.Context, id, vsCurrency string) (float64, bool, *source.Failure) {
	path := fmt.Sprintf("/simple/price?ids=%s&vs_currencies=%s", url.QueryEscape(id), url.QueryEscape(vsCurrency))
	var data map[string]map[string]float64
	if f := c.get(ctx, path, &data); f != nil {
		return 0, false, f
	}
	price, ok := data[id][vsCurrency]
	return price, ok, nil
}

func (c *Client) get(ctx context.Context, path string, out any) *source.Failure {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &source.Failure{Source: Name, Reason: source.ReasonTransport, Err: err}
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &source.Failure{Source: Name, Reason: source.ReasonTransport, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return source.Failf(Name, source.ReasonNotFound, "GET %s -> %d", path, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return source.Failf(Name, source.ReasonTransport, "GET %s -> %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return source.Failf(Name, source.ReasonMalformed, "decode %s: %v", path, err)
	}
	return nil
}
