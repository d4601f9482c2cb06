package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/csrd-cli/internal/model"
)

// exportColumns defines the ordered output columns for tabular export.
var exportColumns = []string{
	"company",
	"report_year",
	"indicator_id",
	"indicator_name",
	"value",
	"unit",
	"confidence_score",
	"source_page",
	"source_section",
	"notes",
}

// ExportCSV writes indicator rows as a CSV file.
func ExportCSV(rows []model.IndicatorRow, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrap(err, "export: create csv file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(exportColumns); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	for _, r := range rows {
		if err := w.Write(buildRow(r)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}

	return nil
}

// ExportXLSX writes indicator rows as a single-sheet spreadsheet.
func ExportXLSX(rows []model.IndicatorRow, outputPath string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("indicators")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range exportColumns {
		header.AddCell().Value = col
	}

	for _, r := range rows {
		row := sheet.AddRow()
		for _, cell := range buildRow(r) {
			row.AddCell().Value = cell
		}
	}

	if err := file.Save(outputPath); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}

// buildRow maps an IndicatorRow to its column values.
func buildRow(r model.IndicatorRow) []string {
	value := ""
	if r.Value != nil {
		value = strconv.FormatFloat(*r.Value, 'f', -1, 64)
	}
	page := ""
	if r.SourcePage != nil {
		page = strconv.Itoa(*r.SourcePage)
	}

	return []string{
		r.Company,
		strconv.Itoa(r.ReportYear),
		r.IndicatorID,
		r.IndicatorName,
		value,
		r.Unit,
		fmt.Sprintf("%.3f", r.ConfidenceScore),
		page,
		r.SourceSection,
		r.Notes,
	}
}
