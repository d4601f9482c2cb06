package model

import (
	"math"
	"time"
)

// DefaultConfidenceThreshold is the confidence below which a result counts
// as low-confidence in bank-level quality metrics.
const DefaultConfidenceThreshold = 0.6

// ClampConfidence forces v into [0,1] and rounds to 3 decimals.
func ClampConfidence(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return math.Round(v*1000) / 1000
}

// ExtractionResult is the outcome of resolving one indicator against one
// document. A nil Value means the indicator was not found; Notes always
// carries a human-readable explanation of how the result was produced.
type ExtractionResult struct {
	IndicatorID     string   `json:"indicator_id"`
	IndicatorName   string   `json:"indicator_name"`
	Value           *float64 `json:"value"`
	Unit            string   `json:"unit"`
	ConfidenceScore float64  `json:"confidence_score"`
	SourcePage      *int     `json:"source_page"`
	SourceSection   string   `json:"source_section,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// SetConfidence writes a clamped, 3-decimal confidence score.
func (r *ExtractionResult) SetConfidence(v float64) {
	r.ConfidenceScore = ClampConfidence(v)
}

// PrependNote adds a provenance note ahead of any existing notes. Notes are
// append-only: later pipeline stages prepend, never overwrite.
func (r *ExtractionResult) PrependNote(note string) {
	if note == "" {
		return
	}
	if r.Notes == "" {
		r.Notes = note
		return
	}
	r.Notes = note + r.Notes
}

// BankExtractionResult aggregates one document's extraction run. It is
// populated indicator-by-indicator and its quality metrics are computed
// once, by Finalize, after all indicators have been processed.
type BankExtractionResult struct {
	Company     string    `json:"company"`
	ReportYear  int       `json:"report_year"`
	SourceFile  string    `json:"source_file,omitempty"`
	ExtractedAt time.Time `json:"extracted_at"`

	Indicators []ExtractionResult `json:"indicators"`

	AvgConfidence      float64  `json:"avg_confidence"`
	LowConfidenceCount int      `json:"low_confidence_count"`
	MissingIndicators  []string `json:"missing_indicators"`
}

// Append adds one indicator result, preserving catalog order.
func (b *BankExtractionResult) Append(r ExtractionResult) {
	b.Indicators = append(b.Indicators, r)
}

// Rows flattens the bank result into persistable rows, preserving catalog
// order. Both the stores and the spreadsheet export consume this shape.
func (b *BankExtractionResult) Rows() []IndicatorRow {
	rows := make([]IndicatorRow, 0, len(b.Indicators))
	for _, r := range b.Indicators {
		rows = append(rows, IndicatorRow{
			ExtractionResult: r,
			Company:          b.Company,
			ReportYear:       b.ReportYear,
		})
	}
	return rows
}

// Finalize computes the derived quality metrics. Idempotent; a threshold
// of 0 falls back to DefaultConfidenceThreshold.
func (b *BankExtractionResult) Finalize(threshold float64) {
	if threshold == 0 {
		threshold = DefaultConfidenceThreshold
	}

	b.AvgConfidence = 0
	b.LowConfidenceCount = 0
	b.MissingIndicators = nil

	if len(b.Indicators) == 0 {
		return
	}

	var sum float64
	for _, r := range b.Indicators {
		sum += r.ConfidenceScore
		if r.ConfidenceScore < threshold {
			b.LowConfidenceCount++
		}
		if r.Value == nil {
			b.MissingIndicators = append(b.MissingIndicators, r.IndicatorID)
		}
	}
	b.AvgConfidence = sum / float64(len(b.Indicators))
}

// Found returns the number of indicators with a non-nil value.
func (b *BankExtractionResult) Found() int {
	n := 0
	for _, r := range b.Indicators {
		if r.Value != nil {
			n++
		}
	}
	return n
}
