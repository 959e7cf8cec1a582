package pricecache

import (
	"sync"
	"time"
)

// Failures records recent fetch failures so a known-bad source is skipped
// for a pair until the suppression window elapses. Records expire lazily on
// lookup; unbounded growth over the process lifetime is acceptable.
type Failures struct {
	ttl time.Duration

	mu   sync.Mutex
	seen map[key]time.Time
}

func NewFailures(ttl time.Duration) *Failures {
	return &Failures{ttl: ttl, seen: make(map[key]time.Time)}
}

// Record marks the tuple as failed now.
func (f *Failures) Record(src, base, quote string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[key{src, base, quote}] = time.Now()
}

// Suppressed reports whether the tuple failed within the suppression window.
func (f *Failures) Suppressed(src, base, quote string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.seen[key{src, base, quote}]
	return ok && time.Since(t) < f.ttl
}
