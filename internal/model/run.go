package model

import "time"

// RunStatus represents the state of a bank extraction run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ExtractionRun is the persisted record of one bank extraction.
type ExtractionRun struct {
	ID                    string     `json:"id"`
	Company               string     `json:"company"`
	ReportYear            int        `json:"report_year"`
	Status                RunStatus  `json:"status"`
	TotalIndicators       int        `json:"total_indicators"`
	SuccessfulExtractions int        `json:"successful_extractions"`
	AvgConfidence         float64    `json:"avg_confidence"`
	Error                 string     `json:"error,omitempty"`
	StartedAt             time.Time  `json:"started_at"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
}

// IndicatorRow is one persisted indicator value, keyed by
// (company, report_year, indicator_id) with upsert semantics.
type IndicatorRow struct {
	Company    string `json:"company"`
	ReportYear int    `json:"report_year"`
	ExtractionResult
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
