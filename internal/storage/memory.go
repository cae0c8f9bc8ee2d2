package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"finadvisor/internal/models"
)

// MemoryStorage implements the Storage interface using in-memory data structures.
// This provider is ideal for development, testing, and scenarios where data
// persistence is not required. It provides fast access but data is lost on restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*models.QueryRecord          // insertion order
	byID    map[string]*models.QueryRecord // keyed by record ID
}

// NewMemoryStorage creates a new memory-based storage instance
func NewMemoryStorage(config Config) (*MemoryStorage, error) {
	return &MemoryStorage{
		records: make([]*models.QueryRecord, 0),
		byID:    make(map[string]*models.QueryRecord),
	}, nil
}

// SaveQuery stores or updates a query record
func (m *MemoryStorage) SaveQuery(ctx context.Context, record *models.QueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Store a copy to prevent external modification
	recordCopy := *record

	if existing, exists := m.byID[record.ID]; exists {
		for i, r := range m.records {
			if r == existing {
				m.records[i] = &recordCopy
				break
			}
		}
		m.byID[record.ID] = &recordCopy
		return nil
	}

	m.records = append(m.records, &recordCopy)
	m.byID[record.ID] = &recordCopy

	return nil
}

// Queries returns query records, most recent first
func (m *MemoryStorage) Queries(ctx context.Context, limit int) ([]*models.QueryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return copies to prevent external modification
	result := make([]*models.QueryRecord, len(m.records))
	for i, record := range m.records {
		recordCopy := *record
		result[i] = &recordCopy
	}

	// Sort by creation time (latest first)
	sort.Slice(result, func(i, j int) bool {
		return result[j].CreatedAt.Before(result[i].CreatedAt)
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}

	return result, nil
}

// GetQuery retrieves a query record by its ID
func (m *MemoryStorage) GetQuery(ctx context.Context, id string) (*models.QueryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.byID[id]
	if !exists {
		return nil, ErrNotFound
	}

	// Return a copy
	recordCopy := *record
	return &recordCopy, nil
}

// DeleteQueriesBefore removes records created before the cutoff
func (m *MemoryStorage) DeleteQueriesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	deleted := 0
	for _, record := range m.records {
		if record.CreatedAt.Before(cutoff) {
			delete(m.byID, record.ID)
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	m.records = kept

	return deleted, nil
}

// Ping verifies the storage backend is reachable and operational.
func (m *MemoryStorage) Ping(_ context.Context) error {
	return nil
}

// Close closes the storage connection and cleans up resources
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Clear all data
	m.records = make([]*models.QueryRecord, 0)
	m.byID = make(map[string]*models.QueryRecord)

	return nil
}
