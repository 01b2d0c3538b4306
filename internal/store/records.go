package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"qualsight/internal/model"
)

// ErrNotFound is returned when no row exists for the requested ticker
var ErrNotFound = errors.New("store: not found")

// RecordRepository persists fetched financial records, one row per ticker.
// The record itself is stored as JSONB so the schema never chases the
// metric set.
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// Save upserts the record under its ticker
func (r *RecordRepository) Save(ctx context.Context, record *model.FinancialRecord) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	query := `
		INSERT INTO financial_records (ticker, source, fetched_at, record)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker) DO UPDATE SET
			source = EXCLUDED.source,
			fetched_at = EXCLUDED.fetched_at,
			record = EXCLUDED.record
	`

	_, err = r.pool.Exec(ctx, query,
		normalizeTicker(record.Ticker), record.DataSource, record.FetchTimestamp, encoded)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// GetByTicker returns the stored record for a ticker, or ErrNotFound
func (r *RecordRepository) GetByTicker(ctx context.Context, ticker string) (*model.FinancialRecord, error) {
	query := `SELECT record FROM financial_records WHERE ticker = $1`

	var encoded []byte
	err := r.pool.QueryRow(ctx, query, normalizeTicker(ticker)).Scan(&encoded)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	var record model.FinancialRecord
	if err := json.Unmarshal(encoded, &record); err != nil {
		return nil, fmt.Errorf("failed to decode stored record: %w", err)
	}
	return &record, nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
