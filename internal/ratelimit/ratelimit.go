// Package ratelimit implements the fixed-window request limiter that gates
// the chat endpoint.
//
// A window is a fixed interval: the first request from a key opens a fresh
// window with count=1; subsequent requests increment the count until the cap,
// after which requests are rejected without further incrementing; once the
// window expires the next request opens a new one. Counters live behind the
// Store interface so single-process deployments can use the in-memory store
// while horizontally scaled ones share a Redis-backed counter.
//
// The limiter is advisory throttling, not an authorization mechanism: it
// never fails a request on store errors (default-open), and clients whose
// identity cannot be resolved share one "unknown" bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store persists per-key window counters.
//
// Implementations must be safe for concurrent use. Allow reports whether one
// more request fits in the key's current window; once the cap is reached,
// further calls within the window must not grow the count.
type Store interface {
	Allow(ctx context.Context, key string, max int, window time.Duration) (bool, error)
}

// Limiter applies a fixed cap per key per window using a Store.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
}

// NewLimiter constructs a Limiter. max values <= 0 are coerced to 1;
// window values <= 0 are coerced to one minute.
func NewLimiter(store Store, max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{store: store, max: max, window: window}
}

// Allow reports whether the request identified by key may proceed.
// Store failures are treated as allowed; throttling is best-effort.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	ok, err := l.store.Allow(ctx, key, l.max, l.window)
	if err != nil {
		return true
	}
	return ok
}

// entry is one key's window state.
type entry struct {
	count int
	reset time.Time
}

// MemoryStore keeps window counters in an in-process map guarded by a mutex.
// Expired entries are evicted opportunistically after a threshold of lookups
// to keep memory usage bounded.
//
// This store is process-local; counts are lost on restart and are not shared
// across instances.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*entry
	cleanupN uint64

	// now is swappable in tests.
	now func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow implements Store.
func (s *MemoryStore) Allow(_ context.Context, key string, max int, window time.Duration) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Opportunistic cleanup after a threshold of lookups, BEFORE touching the
	// requested entry, so a stale entry can be evicted even when it is the one
	// being fetched.
	s.cleanupN++
	if s.cleanupN >= 5000 {
		for k, e := range s.entries {
			if !now.Before(e.reset) {
				delete(s.entries, k)
			}
		}
		s.cleanupN = 0
	}

	e, ok := s.entries[key]
	if !ok || !now.Before(e.reset) {
		s.entries[key] = &entry{count: 1, reset: now.Add(window)}
		return true, nil
	}
	if e.count >= max {
		// Reject without incrementing so the window length stays fixed.
		return false, nil
	}
	e.count++
	return true, nil
}
