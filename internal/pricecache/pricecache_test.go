package pricecache

import (
	"testing"
	"time"

	"pricefeed/internal/source"
)

func quoteAt(src, base, quote string, price float64, ts time.Time) source.Quote {
	return source.Quote{Source: src, Base: base, Quote: quote, Price: price, Timestamp: ts}
}

func TestPrices_LookupMissesExpiredEntry(t *testing.T) {
	p := NewPrices(300 * time.Second)
	p.Store(quoteAt("binance", "BTC", "USDT", 60000, time.Now().Add(-301*time.Second)))

	if _, ok := p.Lookup("binance", "BTC", "USDT"); ok {
		t.Fatal("expected expired entry to be treated as absent")
	}
}

func TestPrices_LookupHitsLiveEntry(t *testing.T) {
	p := NewPrices(300 * time.Second)
	p.Store(quoteAt("binance", "BTC", "USDT", 60000, time.Now()))

	q, ok := p.Lookup("binance", "BTC", "USDT")
	if !ok || q.Price != 60000 {
		t.Fatalf("expected live hit, got ok=%v q=%+v", ok, q)
	}
	if _, ok := p.Lookup("okx", "BTC", "USDT"); ok {
		t.Fatal("entries must be per-source")
	}
}

func TestPrices_StoreOverwritesSameKey(t *testing.T) {
	p := NewPrices(300 * time.Second)
	p.Store(quoteAt("binance", "BTC", "USDT", 60000, time.Now()))
	p.Store(quoteAt("binance", "BTC", "USDT", 61000, time.Now()))

	q, ok := p.Lookup("binance", "BTC", "USDT")
	if !ok || q.Price != 61000 {
		t.Fatalf("expected last write to win, got ok=%v q=%+v", ok, q)
	}
}

func TestPrices_ExpiresInNonIncreasingAndResetOnStore(t *testing.T) {
	p := NewPrices(300 * time.Second)
	now := time.Now()
	q := quoteAt("binance", "BTC", "USDT", 60000, now)
	p.Store(q)

	first := p.ExpiresIn(q, now)
	later := p.ExpiresIn(q, now.Add(10*time.Second))
	if first != 300 {
		t.Fatalf("expected fresh entry to expire in ~TTL, got %v", first)
	}
	if later >= first {
		t.Fatalf("expires_in must not increase without a store: %v -> %v", first, later)
	}
	if got := p.ExpiresIn(q, now.Add(10*time.Minute)); got != 0 {
		t.Fatalf("expires_in must never be negative, got %v", got)
	}

	fresh := quoteAt("binance", "BTC", "USDT", 60001, now.Add(20*time.Second))
	p.Store(fresh)
	if got := p.ExpiresIn(fresh, now.Add(20*time.Second)); got != 300 {
		t.Fatalf("expires_in must reset to ~TTL after a store, got %v", got)
	}
}

func TestPrices_DerivedExpiryFollowsOldestLeg(t *testing.T) {
	p := NewPrices(300 * time.Second)
	now := time.Now()
	older := now.Add(-100 * time.Second)
	derived := source.Quote{Source: source.DerivedName, Base: "XYZ", Quote: "ABC", Price: 5, Timestamp: older}

	if got := p.ExpiresIn(derived, now); got != 200 {
		t.Fatalf("derived quote should expire with its weakest input, got %v", got)
	}
}

func TestFailures_SuppressionWindow(t *testing.T) {
	f := NewFailures(40 * time.Millisecond)

	if f.Suppressed("kraken", "BTC", "USDT") {
		t.Fatal("nothing recorded yet")
	}
	f.Record("kraken", "BTC", "USDT")
	if !f.Suppressed("kraken", "BTC", "USDT") {
		t.Fatal("expected suppression inside the window")
	}
	if f.Suppressed("kraken", "ETH", "USDT") {
		t.Fatal("suppression is per pair")
	}

	time.Sleep(60 * time.Millisecond)
	if f.Suppressed("kraken", "BTC", "USDT") {
		t.Fatal("expected eligibility after the window elapsed")
	}
}
