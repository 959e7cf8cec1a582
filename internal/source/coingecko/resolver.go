package coingecko

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Resolver maps ticker symbols to CoinGecko asset ids. Resolved ids are
// cached indefinitely; the backing catalog snapshot is refreshed at most
// once per TTL, and a stale snapshot is still searched when a refresh fails.
//
// Multiple real assets can share a ticker (wrapped vs. native tokens); the
// first catalog match wins, which is a known accuracy limitation inherited
// from the upstream catalog ordering.
type Resolver struct {
	client *Client
	ttl    time.Duration
	logger *zap.Logger

	// mu is held across a refresh so concurrent lookups share one upstream
	// call instead of stampeding the catalog endpoint.
	mu        sync.Mutex
	ids       map[string]string
	snapshot  []Coin
	refreshed time.Time
}

func NewResolver(client *Client, ttl time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		client: client,
		ttl:    ttl,
		logger: logger,
		ids:    make(map[string]string),
	}
}

// Resolve returns the CoinGecko id for a ticker symbol.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (string, bool) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[symbol]; ok {
		return id, true
	}

	if len(r.snapshot) == 0 || time.Since(r.refreshed) > r.ttl {
		coins, f := r.client.ListCoins(ctx)
		if f != nil {
			// Degrade to whatever snapshot is already cached, however stale.
			r.logger.Warn("coingecko coin list refresh failed", zap.Error(f))
		} else {
			r.snapshot = coins
			r.refreshed = time.Now()
			r.logger.Info("coingecko coin list refreshed", zap.Int("coins", len(coins)))
		}
	}

	for _, coin := range r.snapshot {
		if strings.EqualFold(coin.Symbol, symbol) {
			r.ids[symbol] = coin.ID
			return coin.ID, true
		}
	}
	return "", false
}
