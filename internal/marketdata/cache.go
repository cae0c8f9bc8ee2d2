package marketdata

import (
	"sync"
	"time"

	"finadvisor/internal/models"
)

const (
	defaultCacheTTL        = 30 * time.Second
	defaultCacheMaxEntries = 1000
)

type cachedQuote struct {
	quote     *models.Quote
	expiresAt time.Time
}

// quoteCache is a TTL cache keyed by symbol. Expired entries are
// overwritten on the next fetch; when the cache is full the entry closest
// to expiry is evicted.
type quoteCache struct {
	mu         sync.RWMutex
	entries    map[string]cachedQuote
	ttl        time.Duration
	maxEntries int
}

func newQuoteCache(ttl time.Duration, maxEntries int) *quoteCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}
	return &quoteCache{
		entries:    make(map[string]cachedQuote),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (qc *quoteCache) get(symbol string, now time.Time) (*models.Quote, bool) {
	qc.mu.RLock()
	defer qc.mu.RUnlock()

	entry, ok := qc.entries[symbol]
	if !ok || now.After(entry.expiresAt) {
		return nil, false
	}

	quote := *entry.quote
	return &quote, true
}

func (qc *quoteCache) set(symbol string, quote *models.Quote, now time.Time) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	if _, exists := qc.entries[symbol]; !exists && len(qc.entries) >= qc.maxEntries {
		qc.evictLocked(now)
	}

	stored := *quote
	qc.entries[symbol] = cachedQuote{
		quote:     &stored,
		expiresAt: now.Add(qc.ttl),
	}
}

// evictLocked drops expired entries, and if none were expired, the entry
// closest to expiry. Callers must hold the write lock.
func (qc *quoteCache) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldestExp time.Time
		dropped   bool
	)
	for key, entry := range qc.entries {
		if now.After(entry.expiresAt) {
			delete(qc.entries, key)
			dropped = true
			continue
		}
		if oldestKey == "" || entry.expiresAt.Before(oldestExp) {
			oldestKey = key
			oldestExp = entry.expiresAt
		}
	}
	if !dropped && oldestKey != "" {
		delete(qc.entries, oldestKey)
	}
}

func (qc *quoteCache) len() int {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	return len(qc.entries)
}
