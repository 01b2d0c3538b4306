package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the DDL for both repositories. Records are one row per ticker
// (latest fetch wins); reports keep full history.
const schema = `
CREATE TABLE IF NOT EXISTS financial_records (
	ticker      TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL,
	record      JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS quality_reports (
	id            BIGSERIAL PRIMARY KEY,
	ticker        TEXT NOT NULL,
	overall_score DOUBLE PRECISION NOT NULL,
	analyzed_at   TIMESTAMPTZ NOT NULL,
	report        JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quality_reports_ticker
	ON quality_reports (ticker, analyzed_at DESC);
`

// Migrate creates the storage tables when they do not exist yet
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply storage schema: %w", err)
	}
	return nil
}
