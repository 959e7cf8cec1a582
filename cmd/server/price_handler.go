package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"pricefeed/internal/pricecache"
	"pricefeed/internal/resolve"
	"pricefeed/internal/source"
)

// sourceEntry is one contributing quote in the response.
type sourceEntry struct {
	Source        string        `json:"source"`
	Price         float64       `json:"price"`
	Inverted      bool          `json:"inverted"`
	OriginalPrice float64       `json:"original_price,omitempty"`
	ExpiresIn     float64       `json:"expires_in"`
	Components    []sourceEntry `json:"components,omitempty"`
}

type priceResponse struct {
	Cached     bool          `json:"cached"`
	Symbol     string        `json:"symbol"`
	Quote      string        `json:"quote"`
	MaxPrice   float64       `json:"max_price"`
	MaxSource  string        `json:"max_source"`
	Inverted   bool          `json:"inverted"`
	ExpiresIn  float64       `json:"expires_in"`
	Sources    []sourceEntry `json:"sources"`
	Components []sourceEntry `json:"components,omitempty"`
}

type priceHandler struct {
	resolver     *resolve.Resolver
	prices       *pricecache.Prices
	defaultQuote string
	logger       *zap.Logger
}

func (h *priceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := r.URL.Query().Get("token")
	if strings.TrimSpace(token) == "" {
		http.Error(w, "missing token query param", http.StatusBadRequest)
		return
	}
	quote := r.URL.Query().Get("quote")
	if quote == "" {
		quote = h.defaultQuote
	}
	requested := r.URL.Query().Get("source")
	intermediate := r.URL.Query().Get("intermediate")
	field := r.URL.Query().Get("query")

	res, err := h.resolver.Resolve(r.Context(), token, quote, requested, intermediate)
	if err != nil {
		var noData *resolve.SourceNoDataError
		switch {
		case errors.Is(err, resolve.ErrInvalidSource):
			http.Error(w, "Invalid source specified", http.StatusBadRequest)
		case errors.As(err, &noData):
			http.Error(w, fmt.Sprintf("No data found for %s on %s/%s", noData.Source, noData.Base, noData.Quote), http.StatusNotFound)
		case errors.Is(err, resolve.ErrNoData):
			http.Error(w, "0.0", http.StatusNotFound)
		default:
			h.logger.Error("price resolution failed", zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	now := time.Now()
	resp := priceResponse{
		Cached:     res.Cached,
		Symbol:     source.Normalize(token),
		Quote:      source.Normalize(quote),
		MaxPrice:   res.Best.Price,
		MaxSource:  res.Best.Source,
		Inverted:   res.Best.Inverted,
		ExpiresIn:  h.prices.ExpiresIn(res.Best, now),
		Sources:    make([]sourceEntry, 0, len(res.Quotes)),
		Components: h.entries(res.Best.Components, now),
	}
	for _, q := range res.Quotes {
		resp.Sources = append(resp.Sources, h.entry(q, now))
	}

	if field != "" {
		if v, ok := scalarField(resp, field); ok {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprint(w, v)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func (h *priceHandler) entry(q source.Quote, now time.Time) sourceEntry {
	return sourceEntry{
		Source:        q.Source,
		Price:         q.Price,
		Inverted:      q.Inverted,
		OriginalPrice: q.OriginalPrice,
		ExpiresIn:     h.prices.ExpiresIn(q, now),
		Components:    h.entries(q.Components, now),
	}
}

func (h *priceHandler) entries(quotes []source.Quote, now time.Time) []sourceEntry {
	if len(quotes) == 0 {
		return nil
	}
	out := make([]sourceEntry, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, h.entry(q, now))
	}
	return out
}

// scalarField selects a single scalar response field for plain-text output.
// Unknown fields fall through to the full JSON response.
func scalarField(resp priceResponse, field string) (any, bool) {
	fields := map[string]any{
		"cached":     resp.Cached,
		"symbol":     resp.Symbol,
		"quote":      resp.Quote,
		"max_price":  resp.MaxPrice,
		"max_source": resp.MaxSource,
		"inverted":   resp.Inverted,
		"expires_in": resp.ExpiresIn,
	}
	v, ok := fields[field]
	return v, ok
}
