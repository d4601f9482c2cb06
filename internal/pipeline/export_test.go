package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/csrd-cli/internal/model"
)

func sampleBank() *model.BankExtractionResult {
	v := 4128.0
	page := 317
	return &model.BankExtractionResult{
		Company:     "BPCE",
		ReportYear:  2024,
		ExtractedAt: time.Now().UTC(),
		Indicators: []model.ExtractionResult{
			{
				IndicatorID:     "E1",
				IndicatorName:   "Scope 1 GHG Emissions",
				Value:           &v,
				Unit:            "tCO2e",
				ConfidenceScore: 0.85,
				SourcePage:      &page,
				SourceSection:   "E1-6",
				Notes:           "pattern match",
			},
			{
				IndicatorID:   "S1",
				IndicatorName: "Total Employees",
				Unit:          "FTE",
				Notes:         "not disclosed",
			},
		},
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, ExportCSV(sampleBank().Rows(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, exportColumns, records[0])
	assert.Equal(t, []string{
		"BPCE", "2024", "E1", "Scope 1 GHG Emissions", "4128", "tCO2e",
		"0.850", "317", "E1-6", "pattern match",
	}, records[1])
	// Null value and page export as empty cells.
	assert.Equal(t, "", records[2][4])
	assert.Equal(t, "", records[2][7])
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, ExportXLSX(sampleBank().Rows(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
