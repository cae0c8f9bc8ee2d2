package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finadvisor/internal/models"

	_ "modernc.org/sqlite"
)

// sqliteSchema holds the query history table. Timestamps are stored as
// fixed-width UTC text (see dbconvert.go) so ORDER BY works on the column.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS queries (
	id         TEXT PRIMARY KEY,
	client_key TEXT NOT NULL,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL DEFAULT '',
	risk_level TEXT NOT NULL DEFAULT '',
	model      TEXT NOT NULL DEFAULT '',
	latency_ms INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queries_created_at ON queries (created_at);
`

// SQLiteStorage implements the Storage interface using an embedded SQLite
// database. The pure-Go driver keeps the binary free of cgo.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance and ensures the
// schema exists.
func NewSQLiteStorage(config Config) (Storage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{
		db: db,
	}, nil
}

// SaveQuery stores or updates a query record
func (ss *SQLiteStorage) SaveQuery(ctx context.Context, record *models.QueryRecord) error {
	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO queries (id, client_key, question, answer, risk_level, model, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_key = excluded.client_key,
			question   = excluded.question,
			answer     = excluded.answer,
			risk_level = excluded.risk_level,
			model      = excluded.model,
			latency_ms = excluded.latency_ms`,
		record.ID,
		record.ClientKey,
		record.Question,
		record.Answer,
		string(record.RiskLevel),
		record.Model,
		record.LatencyMS,
		timeToDBString(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save query: %w", err)
	}
	return nil
}

// Queries returns query records, most recent first
func (ss *SQLiteStorage) Queries(ctx context.Context, limit int) ([]*models.QueryRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}

	rows, err := ss.db.QueryContext(ctx, `
		SELECT id, client_key, question, answer, risk_level, model, latency_ms, created_at
		FROM queries
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.QueryRecord, 0)
	for rows.Next() {
		record, err := scanSQLiteQuery(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

// GetQuery retrieves a query record by its ID
func (ss *SQLiteStorage) GetQuery(ctx context.Context, id string) (*models.QueryRecord, error) {
	row := ss.db.QueryRowContext(ctx, `
		SELECT id, client_key, question, answer, risk_level, model, latency_ms, created_at
		FROM queries
		WHERE id = ?`, id)

	record, err := scanSQLiteQuery(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// DeleteQueriesBefore removes records created before the cutoff
func (ss *SQLiteStorage) DeleteQueriesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := ss.db.ExecContext(ctx,
		`DELETE FROM queries WHERE created_at < ?`, timeToDBString(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted records: %w", err)
	}
	return int(deleted), nil
}

// Ping verifies the storage backend is reachable and operational.
func (ss *SQLiteStorage) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the storage connection
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteQuery(row rowScanner) (*models.QueryRecord, error) {
	var record models.QueryRecord
	var riskLevel, createdAt string

	if err := row.Scan(
		&record.ID,
		&record.ClientKey,
		&record.Question,
		&record.Answer,
		&riskLevel,
		&record.Model,
		&record.LatencyMS,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	record.RiskLevel = models.RiskLevel(riskLevel)

	ts, err := dbStringToTime(createdAt)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = ts

	return &record, nil
}
