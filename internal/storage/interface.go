package storage

import (
	"context"
	"time"

	"finadvisor/internal/models"
)

// Storage defines the interface for query history persistence and retrieval.
// It provides a clean abstraction that can be implemented by different backends
// such as JSON files, embedded databases, or external database servers.
type Storage interface {
	// SaveQuery stores or updates a query record
	SaveQuery(ctx context.Context, record *models.QueryRecord) error

	// Queries returns query records, most recent first. A limit of zero or
	// less returns all records.
	Queries(ctx context.Context, limit int) ([]*models.QueryRecord, error)

	// GetQuery retrieves a query record by its ID.
	// Returns ErrNotFound if no record exists.
	GetQuery(ctx context.Context, id string) (*models.QueryRecord, error)

	// DeleteQueriesBefore removes records created before the cutoff and
	// returns how many were removed. Retention sweeps use this.
	DeleteQueriesBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Ping verifies the storage backend is reachable and operational
	Ping(ctx context.Context) error

	// Close closes the storage connection and cleans up resources
	Close() error
}

// Config holds configuration for storage backends
type Config struct {
	// Type specifies the storage backend type (json, database, etc.)
	Type string `json:"type" yaml:"type"`

	// Path is used for file-based storage backends
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// ConnectionString is used for database backends
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`

	// CacheTTL specifies how long to cache data in memory
	CacheTTL string `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`

	// Additional options for specific backends
	Options map[string]interface{} `json:"options,omitempty" yaml:"options,omitempty"`
}
