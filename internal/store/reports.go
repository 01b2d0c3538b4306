package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"qualsight/internal/model"
)

// ReportRepository persists quality reports with full history so score drift
// over time stays queryable
type ReportRepository struct {
	pool *pgxpool.Pool
}

// ReportSummary is one row of report history without the full payload
type ReportSummary struct {
	Ticker       string    `json:"ticker"`
	OverallScore float64   `json:"overall_score"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
}

// NewReportRepository creates a new report repository
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Save appends a report to the history
func (r *ReportRepository) Save(ctx context.Context, report *model.QualityReport) error {
	encoded, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	analyzedAt := report.AnalysisDate
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}

	query := `
		INSERT INTO quality_reports (ticker, overall_score, analyzed_at, report)
		VALUES ($1, $2, $3, $4)
	`

	_, err = r.pool.Exec(ctx, query,
		normalizeTicker(report.Ticker), report.OverallScore, analyzedAt, encoded)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// LatestByTicker returns the most recent report for a ticker, or ErrNotFound
func (r *ReportRepository) LatestByTicker(ctx context.Context, ticker string) (*model.QualityReport, error) {
	query := `
		SELECT report FROM quality_reports
		WHERE ticker = $1
		ORDER BY analyzed_at DESC
		LIMIT 1
	`

	var encoded []byte
	err := r.pool.QueryRow(ctx, query, normalizeTicker(ticker)).Scan(&encoded)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	var report model.QualityReport
	if err := json.Unmarshal(encoded, &report); err != nil {
		return nil, fmt.Errorf("failed to decode stored report: %w", err)
	}
	return &report, nil
}

// History returns recent score summaries for a ticker, newest first
func (r *ReportRepository) History(ctx context.Context, ticker string, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ticker, overall_score, analyzed_at FROM quality_reports
		WHERE ticker = $1
		ORDER BY analyzed_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, normalizeTicker(ticker), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load report history: %w", err)
	}
	defer rows.Close()

	var summaries []ReportSummary
	for rows.Next() {
		var s ReportSummary
		if err := rows.Scan(&s.Ticker, &s.OverallScore, &s.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report history row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
