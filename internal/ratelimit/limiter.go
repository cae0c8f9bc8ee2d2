// Package ratelimit provides per-client request throttling using a fixed
// window counter. Each client key gets a counter and a window expiry; the
// first request in a window admits and stamps the expiry, later requests
// increment the counter until the window is filled, and requests past the
// limit are denied without touching the counter. The package ships two
// stores behind one interface: an in-memory store for single-instance
// deployments and a Redis-backed store for multi-replica ones, plus HTTP
// middleware that sets standard rate limit response headers.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"finadvisor/internal/models"
)

// Limiter defines the throttling contract. Implementations must be safe for
// concurrent use.
type Limiter interface {
	// Allow checks whether a request identified by key should be admitted
	// into the current window. It never fails: store errors degrade to
	// admitting the request. Returns whether the request is allowed and
	// rate information for populating response headers.
	Allow(ctx context.Context, key string) (allowed bool, info Info)

	// Close stops background goroutines and releases resources.
	Close() error
}

// Info contains rate limit state for populating response headers.
type Info struct {
	Limit      int           // Maximum requests per window
	Remaining  int           // Requests left in the current window
	ResetAt    time.Time     // When the current window expires
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}

// New creates a Limiter from configuration, selecting the store backend.
func New(cfg models.RateLimitConfig) (Limiter, error) {
	switch cfg.Store {
	case models.RateLimitStoreMemory, "":
		return NewMemoryLimiter(cfg.MaxRequests, cfg.Window, cfg.SweepInterval), nil
	case models.RateLimitStoreRedis:
		return NewRedisLimiter(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported rate limit store: %s", cfg.Store)
	}
}
