package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/csrd-cli/internal/pipeline"
	"github.com/sells-group/csrd-cli/internal/store"
)

var exportFlags struct {
	company string
	year    int
	output  string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored indicator values to CSV or XLSX",
	Long:  "Reads persisted indicator rows from the store, optionally filtered by company and report year, and writes them to a spreadsheet. The format follows the output file extension.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.ListIndicators(ctx, store.IndicatorFilter{
			Company:    exportFlags.company,
			ReportYear: exportFlags.year,
		})
		if err != nil {
			return eris.Wrap(err, "cmd: list indicators")
		}
		if len(rows) == 0 {
			return eris.New("cmd: no indicator rows match the filter")
		}

		switch strings.ToLower(filepath.Ext(exportFlags.output)) {
		case ".csv":
			err = pipeline.ExportCSV(rows, exportFlags.output)
		case ".xlsx":
			err = pipeline.ExportXLSX(rows, exportFlags.output)
		default:
			return eris.Errorf("cmd: unsupported export extension %q, want .csv or .xlsx", filepath.Ext(exportFlags.output))
		}
		if err != nil {
			return err
		}

		zap.L().Info("export written",
			zap.String("path", exportFlags.output),
			zap.Int("rows", len(rows)))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.company, "company", "", "filter by bank name")
	exportCmd.Flags().IntVar(&exportFlags.year, "year", 0, "filter by report year")
	exportCmd.Flags().StringVar(&exportFlags.output, "out", "", "output file (.csv or .xlsx)")
	_ = exportCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(exportCmd)
}
