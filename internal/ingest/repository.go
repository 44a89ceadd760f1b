package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ewanb/gridpulse/internal/contracts"
)

// Repository persists cleaned generation records. It owns the destination
// schema; the pipeline only guarantees timestamp, fuel_type and
// generation_mw per record.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new generation repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// schema holds the tables this repository owns. Surrogate keys and
// created_at timestamps are assigned here, not by the pipeline.
const schema = `
CREATE TABLE IF NOT EXISTS generation_data (
	id            BIGSERIAL PRIMARY KEY,
	timestamp     TIMESTAMPTZ NOT NULL,
	fuel_type     VARCHAR(50) NOT NULL,
	generation_mw DOUBLE PRECISION NOT NULL,
	data_source   VARCHAR(50) DEFAULT 'elexon',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (timestamp, fuel_type)
);

CREATE INDEX IF NOT EXISTS idx_generation_data_timestamp
	ON generation_data (timestamp);

CREATE TABLE IF NOT EXISTS data_quality (
	id           BIGSERIAL PRIMARY KEY,
	check_name   VARCHAR(100) NOT NULL,
	check_result BOOLEAN NOT NULL,
	details      JSONB,
	timestamp    TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate creates the schema if it does not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Save upserts a single generation record
func (r *Repository) Save(ctx context.Context, record *contracts.GenerationRecord) error {
	query := `
		INSERT INTO generation_data (timestamp, fuel_type, generation_mw)
		VALUES ($1, $2, $3)
		ON CONFLICT (timestamp, fuel_type) DO UPDATE SET
			generation_mw = EXCLUDED.generation_mw
	`

	_, err := r.pool.Exec(ctx, query, record.Timestamp, record.FuelType, record.GenerationMW)
	return err
}

// SaveBatch upserts multiple generation records in one transaction.
// A failed insert rolls the whole batch back, so a settlement period is
// never persisted partially.
func (r *Repository) SaveBatch(ctx context.Context, records []contracts.GenerationRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO generation_data (timestamp, fuel_type, generation_mw)
		VALUES ($1, $2, $3)
		ON CONFLICT (timestamp, fuel_type) DO UPDATE SET
			generation_mw = EXCLUDED.generation_mw
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, record := range records {
		if _, err := tx.Exec(ctx, query, record.Timestamp, record.FuelType, record.GenerationMW); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByRange retrieves records within [from, to), chronological
func (r *Repository) GetByRange(ctx context.Context, from, to time.Time) ([]contracts.GenerationRecord, error) {
	query := `
		SELECT timestamp, fuel_type, generation_mw
		FROM generation_data
		WHERE timestamp >= $1 AND timestamp < $2
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []contracts.GenerationRecord
	for rows.Next() {
		var record contracts.GenerationRecord
		if err := rows.Scan(&record.Timestamp, &record.FuelType, &record.GenerationMW); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetLatest retrieves the full fuel mix of the most recent settlement period
func (r *Repository) GetLatest(ctx context.Context) ([]contracts.GenerationRecord, error) {
	query := `
		SELECT timestamp, fuel_type, generation_mw
		FROM generation_data
		WHERE timestamp = (SELECT MAX(timestamp) FROM generation_data)
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []contracts.GenerationRecord
	for rows.Next() {
		var record contracts.GenerationRecord
		if err := rows.Scan(&record.Timestamp, &record.FuelType, &record.GenerationMW); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SaveQualityCheck records the outcome of a pipeline run for auditing
func (r *Repository) SaveQualityCheck(ctx context.Context, checkName string, passed bool, details map[string]interface{}) error {
	query := `
		INSERT INTO data_quality (check_name, check_result, details, timestamp)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, checkName, passed, details, time.Now().UTC())
	return err
}
