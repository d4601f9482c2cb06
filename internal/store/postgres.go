package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/csrd-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sustainability_indicators (
	company          TEXT NOT NULL,
	report_year      INTEGER NOT NULL,
	indicator_id     TEXT NOT NULL,
	indicator_name   TEXT NOT NULL,
	value            DOUBLE PRECISION,
	unit             TEXT NOT NULL DEFAULT '',
	confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	source_page      INTEGER,
	source_section   TEXT NOT NULL DEFAULT '',
	notes            TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (company, report_year, indicator_id)
);

CREATE TABLE IF NOT EXISTS extraction_runs (
	id                     TEXT PRIMARY KEY,
	company                TEXT NOT NULL,
	report_year            INTEGER NOT NULL,
	status                 TEXT NOT NULL DEFAULT 'running',
	total_indicators       INTEGER NOT NULL DEFAULT 0,
	successful_extractions INTEGER NOT NULL DEFAULT 0,
	avg_confidence         DOUBLE PRECISION NOT NULL DEFAULT 0,
	error                  TEXT NOT NULL DEFAULT '',
	started_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at           TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_indicators_company ON sustainability_indicators(company, report_year);
CREATE INDEX IF NOT EXISTS idx_runs_company ON extraction_runs(company);
CREATE INDEX IF NOT EXISTS idx_runs_status ON extraction_runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertIndicator(ctx context.Context, row model.IndicatorRow) error {
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sustainability_indicators
			(company, report_year, indicator_id, indicator_name, value, unit,
			 confidence_score, source_page, source_section, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (company, report_year, indicator_id) DO UPDATE SET
			indicator_name   = EXCLUDED.indicator_name,
			value            = EXCLUDED.value,
			unit             = EXCLUDED.unit,
			confidence_score = EXCLUDED.confidence_score,
			source_page      = EXCLUDED.source_page,
			source_section   = EXCLUDED.source_section,
			notes            = EXCLUDED.notes,
			updated_at       = EXCLUDED.updated_at`,
		row.Company, row.ReportYear, row.IndicatorID, row.IndicatorName,
		row.Value, row.Unit, row.ConfidenceScore,
		row.SourcePage, row.SourceSection, row.Notes, now, now,
	)
	return eris.Wrapf(err, "postgres: upsert indicator %s/%d/%s", row.Company, row.ReportYear, row.IndicatorID)
}

func (s *PostgresStore) SaveBankResult(ctx context.Context, bank *model.BankExtractionResult) error {
	for _, row := range bank.Rows() {
		if err := s.UpsertIndicator(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) ListIndicators(ctx context.Context, filter IndicatorFilter) ([]model.IndicatorRow, error) {
	query, args := buildIndicatorQuery(filter, '$')

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list indicators")
	}
	defer rows.Close()

	var out []model.IndicatorRow
	for rows.Next() {
		var r model.IndicatorRow
		if err := rows.Scan(
			&r.Company, &r.ReportYear, &r.IndicatorID, &r.IndicatorName,
			&r.Value, &r.Unit, &r.ConfidenceScore, &r.SourcePage,
			&r.SourceSection, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan indicator")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate indicators")
}

func (s *PostgresStore) CreateRun(ctx context.Context, company string, reportYear int) (*model.ExtractionRun, error) {
	run := &model.ExtractionRun{
		ID:         uuid.New().String(),
		Company:    company,
		ReportYear: reportYear,
		Status:     model.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO extraction_runs (id, company, report_year, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Company, run.ReportYear, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, bank *model.BankExtractionResult) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE extraction_runs
		SET status = $1, total_indicators = $2, successful_extractions = $3,
		    avg_confidence = $4, completed_at = $5
		WHERE id = $6`,
		string(model.RunStatusCompleted), len(bank.Indicators), bank.Found(),
		bank.AvgConfidence, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE extraction_runs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ExtractionRun, error) {
	query, args := buildRunQuery(filter, '$')

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []model.ExtractionRun
	for rows.Next() {
		var run model.ExtractionRun
		if err := rows.Scan(
			&run.ID, &run.Company, &run.ReportYear, &run.Status,
			&run.TotalIndicators, &run.SuccessfulExtractions, &run.AvgConfidence,
			&run.Error, &run.StartedAt, &run.CompletedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		out = append(out, run)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
