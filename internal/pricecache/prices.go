// Package pricecache holds the process-wide quote and failure caches shared
// by every concurrent resolution.
package pricecache

import (
	"sync"
	"time"

	"pricefeed/internal/source"
)

// key identifies one cached quote or failure record.
type key struct {
	source string
	base   string
	quote  string
}

// Prices caches successful quotes per (source, base, quote). Expiry is lazy:
// an expired entry is treated as absent on lookup and overwritten by the
// next store. Only positive-price quotes ever reach this cache.
type Prices struct {
	ttl time.Duration

	mu    sync.RWMutex
	items map[key]source.Quote
}

func NewPrices(ttl time.Duration) *Prices {
	return &Prices{ttl: ttl, items: make(map[key]source.Quote)}
}

// Lookup returns the cached quote for the tuple if it is still live.
func (p *Prices) Lookup(src, base, quote string) (source.Quote, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	q, ok := p.items[key{src, base, quote}]
	if !ok || time.Since(q.Timestamp) >= p.ttl {
		return source.Quote{}, false
	}
	return q, true
}

// Store unconditionally overwrites the entry for the quote's tuple.
func (p *Prices) Store(q source.Quote) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[key{q.Source, q.Base, q.Quote}] = q
}

// TTL returns the configured time-to-live.
func (p *Prices) TTL() time.Duration { return p.ttl }

// ExpiresIn reports the remaining freshness of q in seconds at time now,
// never negative. For a derived quote the timestamp is the older leg's, so
// the composite expires with its weakest input.
func (p *Prices) ExpiresIn(q source.Quote, now time.Time) float64 {
	remaining := p.ttl - now.Sub(q.Timestamp)
	if remaining < 0 {
		remaining = 0
	}
	return remaining.Seconds()
}
