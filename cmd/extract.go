package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/csrd-cli/internal/catalog"
	"github.com/sells-group/csrd-cli/internal/document"
	"github.com/sells-group/csrd-cli/internal/model"
	"github.com/sells-group/csrd-cli/internal/pipeline"
	"github.com/sells-group/csrd-cli/internal/store"
	"github.com/sells-group/csrd-cli/pkg/anthropic"
)

var extractFlags struct {
	company string
	year    int
	input   string
	noStore bool
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract all catalog indicators for one bank",
	Long:  "Loads a page-segmented report (a processed directory or a single text file), runs the extraction pipeline for every indicator in the catalog, persists the results, and prints the bank result as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		doc, sourceFile, err := loadDocument(extractFlags.input)
		if err != nil {
			return err
		}

		adapter := pipeline.NewAdapter(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic)
		p := pipeline.New(cat, adapter, cfg.Pipeline, pipeline.Hooks{})

		var st storeHandle
		if !extractFlags.noStore {
			s, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			st.store = s

			run, err := s.CreateRun(ctx, extractFlags.company, extractFlags.year)
			if err != nil {
				return eris.Wrap(err, "cmd: create run")
			}
			st.runID = run.ID
		}

		bank, err := p.Run(ctx, extractFlags.company, extractFlags.year, sourceFile, doc)
		if err != nil {
			st.fail(ctx, err)
			return eris.Wrap(err, "cmd: run extraction")
		}

		if err := st.complete(ctx, bank); err != nil {
			return err
		}

		adapter.Usage().LogCost(cfg.Anthropic.Model, "extract")
		zap.L().Info("extraction finished",
			zap.String("company", bank.Company),
			zap.Int("report_year", bank.ReportYear),
			zap.Float64("avg_confidence", bank.AvgConfidence))

		return printJSON(bank)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractFlags.company, "company", "", "bank name as it appears in the report")
	extractCmd.Flags().IntVar(&extractFlags.year, "year", 2024, "report year")
	extractCmd.Flags().StringVar(&extractFlags.input, "input", "", "processed report directory or text file")
	extractCmd.Flags().BoolVar(&extractFlags.noStore, "no-store", false, "skip persisting results")
	_ = extractCmd.MarkFlagRequired("company")
	_ = extractCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(extractCmd)
}

// storeHandle couples a store with the run it is tracking, so the
// happy and failure paths stay symmetric. A zero handle is a no-op.
type storeHandle struct {
	store store.Store
	runID string
}

func (h storeHandle) fail(ctx context.Context, cause error) {
	if h.store == nil {
		return
	}
	if err := h.store.FailRun(ctx, h.runID, cause); err != nil {
		zap.L().Warn("mark run failed", zap.String("run_id", h.runID), zap.Error(err))
	}
}

func (h storeHandle) complete(ctx context.Context, bank *model.BankExtractionResult) error {
	if h.store == nil {
		return nil
	}
	if err := h.store.SaveBankResult(ctx, bank); err != nil {
		return eris.Wrap(err, "cmd: save bank result")
	}
	if err := h.store.CompleteRun(ctx, h.runID, bank); err != nil {
		return eris.Wrap(err, "cmd: complete run")
	}
	return nil
}

func loadCatalog() (*catalog.Catalog, error) {
	if cfg.Pipeline.CatalogPath != "" {
		return catalog.LoadFile(cfg.Pipeline.CatalogPath)
	}
	return catalog.Default()
}

// loadDocument reads either a processed report directory or a single
// plain-text file, and segments it into pages.
func loadDocument(input string) (model.Document, string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return model.Document{}, "", eris.Wrapf(err, "cmd: stat input %s", input)
	}

	var raw string
	if info.IsDir() {
		raw, err = document.LoadProcessed(input)
	} else {
		var data []byte
		data, err = os.ReadFile(input)
		raw = string(data)
	}
	if err != nil {
		return model.Document{}, "", eris.Wrapf(err, "cmd: load document %s", input)
	}

	return document.Segment(raw), filepath.Base(input), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "cmd: encode result")
	}
	return nil
}
