package ratelimit

import (
	"context"
	"sync"
	"time"
)

// entry is the per-client window state: how many requests have been admitted
// and when the window expires.
type entry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is an in-memory fixed window limiter. All window state lives
// in a map guarded by a single mutex, so the read-modify-write in Allow is
// atomic per process. A background janitor periodically removes entries whose
// window has expired; expired entries that are hit before the janitor gets to
// them are reset in place.
type MemoryLimiter struct {
	max           int
	window        time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	done    chan struct{}
	closed  bool
}

// Option configures a MemoryLimiter.
type Option func(*MemoryLimiter)

// WithClock replaces the limiter's time source. Tests use this to step
// through window boundaries without sleeping.
func WithClock(now func() time.Time) Option {
	return func(m *MemoryLimiter) {
		m.now = now
	}
}

// NewMemoryLimiter creates a limiter admitting maxRequests per fixed window.
// A sweepInterval greater than zero starts a background janitor that evicts
// expired entries on that cadence; zero disables the janitor and leaves
// eviction to explicit Sweep calls.
func NewMemoryLimiter(maxRequests int, window time.Duration, sweepInterval time.Duration, opts ...Option) *MemoryLimiter {
	m := &MemoryLimiter{
		max:           maxRequests,
		window:        window,
		sweepInterval: sweepInterval,
		now:           time.Now,
		entries:       make(map[string]*entry),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if sweepInterval > 0 {
		go m.janitor()
	}
	return m
}

// Allow admits or denies a request for key within the current window.
//
// The first request for a key, or any request after the key's window has
// expired, starts a fresh window and is always admitted. Requests inside a
// live window are admitted while the counter is below the limit. Denied
// requests leave the counter and expiry untouched, so a saturated window
// ends exactly when its first request scheduled it to.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, Info) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(m.window)}
		m.entries[key] = e
		return true, Info{
			Limit:     m.max,
			Remaining: m.max - 1,
			ResetAt:   e.resetAt,
		}
	}

	if e.count < m.max {
		e.count++
		return true, Info{
			Limit:     m.max,
			Remaining: m.max - e.count,
			ResetAt:   e.resetAt,
		}
	}

	return false, Info{
		Limit:      m.max,
		Remaining:  0,
		ResetAt:    e.resetAt,
		RetryAfter: e.resetAt.Sub(now),
	}
}

// Sweep removes every entry whose window has expired. Entries whose window
// is still live are kept, including ones at their admission limit.
func (m *MemoryLimiter) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, e := range m.entries {
		if now.After(e.resetAt) {
			delete(m.entries, key)
		}
	}
}

// Close stops the background janitor.
func (m *MemoryLimiter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// janitor runs Sweep on the configured cadence until Close.
func (m *MemoryLimiter) janitor() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
