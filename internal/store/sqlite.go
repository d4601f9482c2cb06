package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/csrd-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sustainability_indicators (
	company          TEXT NOT NULL,
	report_year      INTEGER NOT NULL,
	indicator_id     TEXT NOT NULL,
	indicator_name   TEXT NOT NULL,
	value            REAL,
	unit             TEXT NOT NULL DEFAULT '',
	confidence_score REAL NOT NULL DEFAULT 0,
	source_page      INTEGER,
	source_section   TEXT NOT NULL DEFAULT '',
	notes            TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (company, report_year, indicator_id)
);

CREATE TABLE IF NOT EXISTS extraction_runs (
	id                     TEXT PRIMARY KEY,
	company                TEXT NOT NULL,
	report_year            INTEGER NOT NULL,
	status                 TEXT NOT NULL DEFAULT 'running',
	total_indicators       INTEGER NOT NULL DEFAULT 0,
	successful_extractions INTEGER NOT NULL DEFAULT 0,
	avg_confidence         REAL NOT NULL DEFAULT 0,
	error                  TEXT NOT NULL DEFAULT '',
	started_at             DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at           DATETIME
);

CREATE INDEX IF NOT EXISTS idx_indicators_company ON sustainability_indicators(company, report_year);
CREATE INDEX IF NOT EXISTS idx_runs_company ON extraction_runs(company);
CREATE INDEX IF NOT EXISTS idx_runs_status ON extraction_runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertIndicator(ctx context.Context, row model.IndicatorRow) error {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sustainability_indicators
			(company, report_year, indicator_id, indicator_name, value, unit,
			 confidence_score, source_page, source_section, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company, report_year, indicator_id) DO UPDATE SET
			indicator_name   = excluded.indicator_name,
			value            = excluded.value,
			unit             = excluded.unit,
			confidence_score = excluded.confidence_score,
			source_page      = excluded.source_page,
			source_section   = excluded.source_section,
			notes            = excluded.notes,
			updated_at       = excluded.updated_at`,
		row.Company, row.ReportYear, row.IndicatorID, row.IndicatorName,
		nullFloat(row.Value), row.Unit, row.ConfidenceScore,
		nullInt(row.SourcePage), row.SourceSection, row.Notes, now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert indicator %s/%d/%s", row.Company, row.ReportYear, row.IndicatorID)
}

func (s *SQLiteStore) SaveBankResult(ctx context.Context, bank *model.BankExtractionResult) error {
	for _, row := range bank.Rows() {
		if err := s.UpsertIndicator(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) ListIndicators(ctx context.Context, filter IndicatorFilter) ([]model.IndicatorRow, error) {
	query, args := buildIndicatorQuery(filter, '?')

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list indicators")
	}
	defer rows.Close()

	var out []model.IndicatorRow
	for rows.Next() {
		var r model.IndicatorRow
		var value sql.NullFloat64
		var page sql.NullInt64
		if err := rows.Scan(
			&r.Company, &r.ReportYear, &r.IndicatorID, &r.IndicatorName,
			&value, &r.Unit, &r.ConfidenceScore, &page, &r.SourceSection,
			&r.Notes, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan indicator")
		}
		if value.Valid {
			r.Value = &value.Float64
		}
		if page.Valid {
			p := int(page.Int64)
			r.SourcePage = &p
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate indicators")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, company string, reportYear int) (*model.ExtractionRun, error) {
	run := &model.ExtractionRun{
		ID:         uuid.New().String(),
		Company:    company,
		ReportYear: reportYear,
		Status:     model.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extraction_runs (id, company, report_year, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Company, run.ReportYear, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, bank *model.BankExtractionResult) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE extraction_runs
		SET status = ?, total_indicators = ?, successful_extractions = ?,
		    avg_confidence = ?, completed_at = ?
		WHERE id = ?`,
		string(model.RunStatusCompleted), len(bank.Indicators), bank.Found(),
		bank.AvgConfidence, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE extraction_runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ExtractionRun, error) {
	query, args := buildRunQuery(filter, '?')

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []model.ExtractionRun
	for rows.Next() {
		var run model.ExtractionRun
		var completed sql.NullTime
		if err := rows.Scan(
			&run.ID, &run.Company, &run.ReportYear, &run.Status,
			&run.TotalIndicators, &run.SuccessfulExtractions, &run.AvgConfidence,
			&run.Error, &run.StartedAt, &completed,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if completed.Valid {
			run.CompletedAt = &completed.Time
		}
		out = append(out, run)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// buildIndicatorQuery assembles the filtered SELECT for indicator rows.
// placeholder is '?' for SQLite and '$' for Postgres positional args.
func buildIndicatorQuery(filter IndicatorFilter, placeholder byte) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT company, report_year, indicator_id, indicator_name, value, unit,
		confidence_score, source_page, source_section, notes, created_at, updated_at
		FROM sustainability_indicators`)

	var conds []string
	var args []any
	if filter.Company != "" {
		args = append(args, filter.Company)
		conds = append(conds, "company = "+arg(placeholder, len(args)))
	}
	if filter.ReportYear != 0 {
		args = append(args, filter.ReportYear)
		conds = append(conds, "report_year = "+arg(placeholder, len(args)))
	}
	if filter.IndicatorID != "" {
		args = append(args, filter.IndicatorID)
		conds = append(conds, "indicator_id = "+arg(placeholder, len(args)))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY company, report_year, indicator_id")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		b.WriteString(" LIMIT " + arg(placeholder, len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		b.WriteString(" OFFSET " + arg(placeholder, len(args)))
	}
	return b.String(), args
}

// buildRunQuery assembles the filtered SELECT for extraction runs.
func buildRunQuery(filter RunFilter, placeholder byte) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT id, company, report_year, status, total_indicators,
		successful_extractions, avg_confidence, error, started_at, completed_at
		FROM extraction_runs`)

	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, "status = "+arg(placeholder, len(args)))
	}
	if filter.Company != "" {
		args = append(args, filter.Company)
		conds = append(conds, "company = "+arg(placeholder, len(args)))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY started_at DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		b.WriteString(" LIMIT " + arg(placeholder, len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		b.WriteString(" OFFSET " + arg(placeholder, len(args)))
	}
	return b.String(), args
}

// arg renders the nth positional placeholder for the backend's syntax.
func arg(placeholder byte, n int) string {
	if placeholder == '$' {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// checkRowsAffected returns a not-found error when an UPDATE touched no rows.
func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", entity, id)
	}
	return nil
}
