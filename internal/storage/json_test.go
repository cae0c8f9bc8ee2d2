package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONStorage(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "test.json")

	config := Config{
		Type:     "json",
		Path:     filePath,
		CacheTTL: "1m",
	}

	storage, err := NewJSONStorage(config)
	require.NoError(t, err)
	require.NotNil(t, storage)
	defer storage.Close()

	// Check that file was created
	assert.FileExists(t, filePath)

	// Check that cache TTL was set correctly
	assert.Equal(t, time.Minute, storage.cacheTTL)
}

func TestNewJSONStorage_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on Windows")
	}
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "subdir", "test.json")

	storage, err := NewJSONStorage(Config{Type: "json", Path: filePath})
	require.NoError(t, err)
	defer storage.Close()

	// Directory must be traversable by owner only.
	dirInfo, err := os.Stat(filepath.Dir(filePath))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm(),
		"directory should be 0700 (owner rwx only)")

	// Data file must be readable/writable by owner only.
	fileInfo, err := os.Stat(filePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fileInfo.Mode().Perm(),
		"data file should be 0600 (owner rw only)")
}

func TestNewJSONStorage_InvalidPath(t *testing.T) {
	// Use a path that can't be created (root directory on most systems)
	config := Config{
		Type: "json",
		Path: "/",
	}

	_, err := NewJSONStorage(config)
	assert.Error(t, err)
}

func TestNewJSONStorage_CorruptedFile(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "corrupt.json")

	require.NoError(t, os.WriteFile(filePath, []byte("{not valid json"), 0600))

	_, err := NewJSONStorage(Config{Type: "json", Path: filePath})
	assert.Error(t, err)
}

func TestJSONStorage_SaveAndGet(t *testing.T) {
	storage := setupJSONTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	// Test getting non-existent query
	_, err := storage.GetQuery(ctx, "non-existent")
	assert.ErrorIs(t, err, ErrNotFound)

	record := testRecord("q-1", "Is dollar cost averaging sensible?", time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, storage.SaveQuery(ctx, record))

	got, err := storage.GetQuery(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "Is dollar cost averaging sensible?", got.Question)
	assert.Equal(t, record.Answer, got.Answer)
	assert.Equal(t, record.RiskLevel, got.RiskLevel)
	assert.Equal(t, int64(420), got.LatencyMS)
}

func TestJSONStorage_Upsert(t *testing.T) {
	storage := setupJSONTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	record := testRecord("q-1", "First question", time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, storage.SaveQuery(ctx, record))

	// Saving the same ID again replaces the record in place
	record.Answer = "Revised answer."
	require.NoError(t, storage.SaveQuery(ctx, record))

	got, err := storage.GetQuery(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "Revised answer.", got.Answer)

	records, err := storage.Queries(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestJSONStorage_Queries(t *testing.T) {
	storage := setupJSONTestStorage(t)
	defer storage.Close()

	ctx := context.Background()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	// Initially should be empty
	records, err := storage.Queries(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	for i := 1; i <= 4; i++ {
		record := testRecord(
			fmt.Sprintf("q-%d", i),
			fmt.Sprintf("Question %d", i),
			base.Add(time.Duration(i)*time.Minute),
		)
		require.NoError(t, storage.SaveQuery(ctx, record))
	}

	// Should be sorted most recent first
	records, err = storage.Queries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "q-4", records[0].ID)
	assert.Equal(t, "q-1", records[3].ID)

	// Limit truncates to the newest records
	records, err = storage.Queries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q-4", records[0].ID)
	assert.Equal(t, "q-3", records[1].ID)
}

func TestJSONStorage_DeleteQueriesBefore(t *testing.T) {
	storage := setupJSONTestStorage(t)
	defer storage.Close()

	ctx := context.Background()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	cutoff := base.Add(time.Hour)

	require.NoError(t, storage.SaveQuery(ctx, testRecord("old", "Old", base)))
	require.NoError(t, storage.SaveQuery(ctx, testRecord("at-cutoff", "At cutoff", cutoff)))
	require.NoError(t, storage.SaveQuery(ctx, testRecord("fresh", "Fresh", cutoff.Add(time.Minute))))

	deleted, err := storage.DeleteQueriesBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = storage.GetQuery(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = storage.GetQuery(ctx, "at-cutoff")
	assert.NoError(t, err)
	_, err = storage.GetQuery(ctx, "fresh")
	assert.NoError(t, err)

	// Nothing left to delete
	deleted, err = storage.DeleteQueriesBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestJSONStorage_PersistsAcrossInstances(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "persist.json")
	ctx := context.Background()

	first, err := NewJSONStorage(Config{Type: "json", Path: filePath})
	require.NoError(t, err)

	record := testRecord("q-persist", "Does the history survive a restart?", time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, first.SaveQuery(ctx, record))
	require.NoError(t, first.Close())

	// A fresh instance reads the same file
	second, err := NewJSONStorage(Config{Type: "json", Path: filePath})
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetQuery(ctx, "q-persist")
	require.NoError(t, err)
	assert.Equal(t, "Does the history survive a restart?", got.Question)
	assert.True(t, got.CreatedAt.Equal(record.CreatedAt))
}

func TestJSONStorage_Caching(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "cache_test.json")

	config := Config{
		Type:     "json",
		Path:     filePath,
		CacheTTL: "100ms", // Very short TTL for testing
	}

	storage, err := NewJSONStorage(config)
	require.NoError(t, err)
	defer storage.Close()

	ctx := context.Background()

	record := testRecord("q-cache", "Cached question", time.Now().UTC())
	require.NoError(t, storage.SaveQuery(ctx, record))

	// Verify it's cached
	records, err := storage.Queries(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// Wait for cache to expire
	time.Sleep(150 * time.Millisecond)

	// Should reload from disk
	records, err = storage.Queries(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestJSONStorage_ConcurrentAccess(t *testing.T) {
	storage := setupJSONTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	// Test concurrent reads and writes
	const numGoroutines = 10
	done := make(chan bool, numGoroutines)

	// Start multiple goroutines doing operations
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer func() { done <- true }()

			record := testRecord(fmt.Sprintf("q-%d", id), fmt.Sprintf("Question %d", id), time.Now().UTC())

			err := storage.SaveQuery(ctx, record)
			assert.NoError(t, err)

			// Read it back
			_, err = storage.GetQuery(ctx, record.ID)
			assert.NoError(t, err)

			// List all queries
			_, err = storage.Queries(ctx, 0)
			assert.NoError(t, err)
		}(i)
	}

	// Wait for all goroutines to complete
	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	// Verify all queries were saved
	records, err := storage.Queries(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, numGoroutines)
}

func TestJSONStorage_ConcurrentLoad(t *testing.T) {
	storage := setupJSONTestStorage(t)
	defer storage.Close()

	// Expire the cache so all goroutines hit the slow path.
	storage.mu.Lock()
	storage.cacheExpiry = time.Time{}
	storage.mu.Unlock()

	const n = 20
	errs := make(chan error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			errs <- storage.loadData()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	storage.mu.RLock()
	assert.NotNil(t, storage.data)
	storage.mu.RUnlock()
}

func setupJSONTestStorage(t *testing.T) *JSONStorage {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "test.json")

	config := Config{
		Type: "json",
		Path: filePath,
	}

	storage, err := NewJSONStorage(config)
	require.NoError(t, err)
	return storage
}
