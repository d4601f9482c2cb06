// Package store persists extraction output: indicator values keyed by
// (company, report_year, indicator_id) with upsert semantics, and the run
// history. Two backends are provided, SQLite for single-user CLI use and
// Postgres for shared deployments.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sells-group/csrd-cli/internal/model"
)

// IndicatorFilter specifies criteria for listing indicator rows.
type IndicatorFilter struct {
	Company     string `json:"company,omitempty"`
	ReportYear  int    `json:"report_year,omitempty"`
	IndicatorID string `json:"indicator_id,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}

// RunFilter specifies criteria for listing extraction runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Company string          `json:"company,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the extraction pipeline.
// The pipeline itself never depends on persistence succeeding; callers
// persist the in-memory result after a run completes.
type Store interface {
	// Indicators
	UpsertIndicator(ctx context.Context, row model.IndicatorRow) error
	SaveBankResult(ctx context.Context, bank *model.BankExtractionResult) error
	ListIndicators(ctx context.Context, filter IndicatorFilter) ([]model.IndicatorRow, error)

	// Runs
	CreateRun(ctx context.Context, company string, reportYear int) (*model.ExtractionRun, error)
	CompleteRun(ctx context.Context, runID string, bank *model.BankExtractionResult) error
	FailRun(ctx context.Context, runID string, cause error) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.ExtractionRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Pool is the subset of pgxpool.Pool the Postgres store uses; pgxmock
// satisfies it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
