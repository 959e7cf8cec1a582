package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"pricefeed/internal/httpx"
)

// FetchJSON issues one GET and decodes the response body into out.
// A 404 maps to a not-found failure, any other non-2xx status to
// transport-error, and an undecodable body to malformed-response.
func FetchJSON(ctx context.Context, client *httpx.Client, name, url string, out any) *Failure {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Failure{Source: name, Reason: ReasonTransport, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return &Failure{Source: name, Reason: ReasonTransport, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Failf(name, ReasonNotFound, "GET %s -> %d", url, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return Failf(name, ReasonTransport, "GET %s -> %d: %s", url, resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Failf(name, ReasonMalformed, "decode: %v", err)
	}
	return nil
}
