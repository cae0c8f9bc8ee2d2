package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func getPostgresDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

func newPostgresTestStorage(t *testing.T) Storage {
	t.Helper()
	dsn := getPostgresDSN(t)
	s, err := NewPostgresStorage(Config{ConnectionString: dsn})
	if err != nil {
		t.Fatalf("failed to create postgres storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresStorageConnectionError(t *testing.T) {
	_, err := NewPostgresStorage(Config{ConnectionString: ""})
	if err == nil {
		t.Error("expected error for empty connection string")
	}
}

func TestPostgresStorageInvalidDSN(t *testing.T) {
	_, err := NewPostgresStorage(Config{ConnectionString: "postgres://invalid:5432/nonexistent"})
	if err == nil {
		t.Error("expected error for invalid DSN")
	}
}

func TestPostgresStorageQueryCRUD(t *testing.T) {
	s := newPostgresTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	record := testRecord("pg-test-query", "Is it time to rebalance?", base)

	err := s.SaveQuery(ctx, record)
	if err != nil {
		t.Fatalf("SaveQuery failed: %v", err)
	}

	// Get query
	got, err := s.GetQuery(ctx, "pg-test-query")
	if err != nil {
		t.Fatalf("GetQuery failed: %v", err)
	}
	if got.Question != "Is it time to rebalance?" {
		t.Errorf("expected question, got %q", got.Question)
	}
	if got.LatencyMS != 420 {
		t.Errorf("expected latency 420, got %d", got.LatencyMS)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("expected created at %v, got %v", base, got.CreatedAt)
	}

	// Update query
	record.Answer = "Rebalance once a year."
	err = s.SaveQuery(ctx, record)
	if err != nil {
		t.Fatalf("SaveQuery (update) failed: %v", err)
	}

	got, err = s.GetQuery(ctx, "pg-test-query")
	if err != nil {
		t.Fatalf("GetQuery after update failed: %v", err)
	}
	if got.Answer != "Rebalance once a year." {
		t.Errorf("expected updated answer, got %q", got.Answer)
	}

	// List queries
	records, err := s.Queries(ctx, 0)
	if err != nil {
		t.Fatalf("Queries failed: %v", err)
	}
	found := false
	for _, r := range records {
		if r.ID == "pg-test-query" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected to find pg-test-query in queries list")
	}

	// Get non-existent query
	_, err = s.GetQuery(ctx, "pg-nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-existent query, got %v", err)
	}

	// Clean up so reruns start from a known state
	if _, err := s.DeleteQueriesBefore(ctx, base.Add(time.Hour)); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
}

func TestPostgresStorageOrderingAndLimit(t *testing.T) {
	s := newPostgresTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		record := testRecord(
			fmt.Sprintf("pg-order-%d", i),
			fmt.Sprintf("Question %d", i),
			base.Add(time.Duration(i)*time.Minute),
		)
		if err := s.SaveQuery(ctx, record); err != nil {
			t.Fatalf("SaveQuery %d failed: %v", i, err)
		}
	}

	records, err := s.Queries(ctx, 0)
	if err != nil {
		t.Fatalf("Queries failed: %v", err)
	}
	if len(records) < 3 {
		t.Fatalf("expected at least 3 records, got %d", len(records))
	}
	if records[0].ID != "pg-order-3" {
		t.Errorf("expected most recent record first, got %s", records[0].ID)
	}

	limited, err := s.Queries(ctx, 2)
	if err != nil {
		t.Fatalf("Queries with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 records with limit, got %d", len(limited))
	}
	if limited[0].ID != "pg-order-3" || limited[1].ID != "pg-order-2" {
		t.Errorf("expected pg-order-3, pg-order-2 with limit, got %s, %s", limited[0].ID, limited[1].ID)
	}

	if _, err := s.DeleteQueriesBefore(ctx, base.Add(time.Hour)); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
}

func TestPostgresStorageDeleteQueriesBefore(t *testing.T) {
	s := newPostgresTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	cutoff := base.Add(time.Hour)

	if err := s.SaveQuery(ctx, testRecord("pg-old", "Old", base)); err != nil {
		t.Fatalf("SaveQuery failed: %v", err)
	}
	if err := s.SaveQuery(ctx, testRecord("pg-at-cutoff", "At cutoff", cutoff)); err != nil {
		t.Fatalf("SaveQuery failed: %v", err)
	}

	deleted, err := s.DeleteQueriesBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteQueriesBefore failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted record, got %d", deleted)
	}

	if _, err := s.GetQuery(ctx, "pg-old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected pg-old to be deleted, got %v", err)
	}
	// The record at the exact cutoff instant survives
	if _, err := s.GetQuery(ctx, "pg-at-cutoff"); err != nil {
		t.Errorf("expected pg-at-cutoff to survive: %v", err)
	}

	if _, err := s.DeleteQueriesBefore(ctx, cutoff.Add(time.Hour)); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
}

func TestPostgresStoragePing(t *testing.T) {
	s := newPostgresTestStorage(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
