package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finadvisor/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresSchema holds the query history table. created_at is a timestamptz
// so retention cutoffs compare correctly across time zones.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS queries (
	id         TEXT PRIMARY KEY,
	client_key TEXT NOT NULL,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL DEFAULT '',
	risk_level TEXT NOT NULL DEFAULT '',
	model      TEXT NOT NULL DEFAULT '',
	latency_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queries_created_at ON queries (created_at DESC);
`

// PostgresStorage implements the Storage interface using PostgreSQL.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a new PostgreSQL storage instance and ensures
// the schema exists.
func NewPostgresStorage(config Config) (Storage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	pool, err := pgxpool.New(context.Background(), config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(context.Background(), postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStorage{
		pool: pool,
	}, nil
}

// SaveQuery stores or updates a query record (upsert pattern).
func (ps *PostgresStorage) SaveQuery(ctx context.Context, record *models.QueryRecord) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO queries (id, client_key, question, answer, risk_level, model, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			client_key = EXCLUDED.client_key,
			question   = EXCLUDED.question,
			answer     = EXCLUDED.answer,
			risk_level = EXCLUDED.risk_level,
			model      = EXCLUDED.model,
			latency_ms = EXCLUDED.latency_ms`,
		record.ID,
		record.ClientKey,
		record.Question,
		record.Answer,
		string(record.RiskLevel),
		record.Model,
		record.LatencyMS,
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save query: %w", err)
	}
	return nil
}

// Queries returns query records, most recent first.
func (ps *PostgresStorage) Queries(ctx context.Context, limit int) ([]*models.QueryRecord, error) {
	query := `
		SELECT id, client_key, question, answer, risk_level, model, latency_ms, created_at
		FROM queries
		ORDER BY created_at DESC`

	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = ps.pool.Query(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = ps.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.QueryRecord, 0)
	for rows.Next() {
		record, err := scanPostgresQuery(rows)
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

// GetQuery retrieves a query record by its ID.
func (ps *PostgresStorage) GetQuery(ctx context.Context, id string) (*models.QueryRecord, error) {
	row := ps.pool.QueryRow(ctx, `
		SELECT id, client_key, question, answer, risk_level, model, latency_ms, created_at
		FROM queries
		WHERE id = $1`, id)

	record, err := scanPostgresQuery(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// DeleteQueriesBefore removes records created before the cutoff.
func (ps *PostgresStorage) DeleteQueriesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := ps.pool.Exec(ctx,
		`DELETE FROM queries WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Ping verifies the storage backend is reachable and operational.
func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close closes the storage connection.
func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}

func scanPostgresQuery(row pgx.Row) (*models.QueryRecord, error) {
	var record models.QueryRecord
	var riskLevel string
	var createdAt time.Time

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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	record.RiskLevel = models.RiskLevel(riskLevel)
	record.CreatedAt = createdAt

	return &record, nil
}
