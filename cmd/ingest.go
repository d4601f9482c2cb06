package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/csrd-cli/internal/document"
	"github.com/sells-group/csrd-cli/internal/ocr"
)

var ingestFlags struct {
	pdf     string
	company string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Convert a report PDF into a processed text directory",
	Long:  "Runs pdftotext in layout mode against a sustainability report and writes the page-annotated text under the processed data directory, ready for extraction.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		extractor := ocr.NewPdfToText(cfg.OCR.PdfToTextPath)
		text, err := extractor.ExtractText(ctx, ingestFlags.pdf)
		if err != nil {
			return eris.Wrapf(err, "cmd: extract text from %s", ingestFlags.pdf)
		}

		outDir := filepath.Join(cfg.Data.ProcessedDir, ingestFlags.company)
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrapf(err, "cmd: create %s", outDir)
		}

		outPath := filepath.Join(outDir, "full_text.md")
		if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
			return eris.Wrapf(err, "cmd: write %s", outPath)
		}

		doc := document.Segment(text)
		zap.L().Info("report ingested",
			zap.String("company", ingestFlags.company),
			zap.String("path", outPath),
			zap.Int("pages", len(doc.Pages)))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFlags.pdf, "pdf", "", "source PDF file")
	ingestCmd.Flags().StringVar(&ingestFlags.company, "company", "", "bank name, used as the processed subdirectory")
	_ = ingestCmd.MarkFlagRequired("pdf")
	_ = ingestCmd.MarkFlagRequired("company")

	rootCmd.AddCommand(ingestCmd)
}
