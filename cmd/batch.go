package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/csrd-cli/internal/catalog"
	"github.com/sells-group/csrd-cli/internal/model"
	"github.com/sells-group/csrd-cli/internal/pipeline"
	"github.com/sells-group/csrd-cli/pkg/anthropic"
)

var batchFlags struct {
	inputDir    string
	year        int
	concurrency int
	noStore     bool
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract indicators for every bank in a directory",
	Long:  "Walks a directory of processed reports, one subdirectory per bank (named after the bank), and runs the extraction pipeline for each. Banks run in parallel; indicators within a bank stay sequential.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		entries, err := os.ReadDir(batchFlags.inputDir)
		if err != nil {
			return eris.Wrapf(err, "cmd: read input dir %s", batchFlags.inputDir)
		}

		var banks []string
		for _, e := range entries {
			if e.IsDir() {
				banks = append(banks, e.Name())
			}
		}
		if len(banks) == 0 {
			return eris.Errorf("cmd: no bank directories under %s", batchFlags.inputDir)
		}

		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		var st storeHandle
		if !batchFlags.noStore {
			s, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			st.store = s
		}

		results, failed := runBatch(ctx, cat, st, banks)

		zap.L().Info("batch finished",
			zap.Int("banks", len(results)),
			zap.Int("failed", failed))
		return printJSON(results)
	},
}

// runBatch extracts every bank with bounded parallelism. One bank failing
// must not take the rest of the batch down with it: its run is marked
// failed, the error is logged, and the batch moves on.
func runBatch(ctx context.Context, cat *catalog.Catalog, st storeHandle, banks []string) ([]*model.BankExtractionResult, int) {
	var (
		mu      sync.Mutex
		results []*model.BankExtractionResult
		failed  int
	)

	var g errgroup.Group
	g.SetLimit(batchFlags.concurrency)

	for _, company := range banks {
		company := company
		g.Go(func() error {
			bank, err := extractBank(ctx, cat, st, company)
			if err != nil {
				zap.L().Error("bank extraction failed",
					zap.String("company", company),
					zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			results = append(results, bank)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Company < results[j].Company })
	return results, failed
}

// extractBank runs the full pipeline for one bank, tracking its run in the
// store when one is attached.
func extractBank(ctx context.Context, cat *catalog.Catalog, st storeHandle, company string) (*model.BankExtractionResult, error) {
	doc, sourceFile, err := loadDocument(filepath.Join(batchFlags.inputDir, company))
	if err != nil {
		return nil, err
	}

	// Each bank gets its own adapter and pipeline so token accounting
	// and rate limiting stay per-bank.
	adapter := pipeline.NewAdapter(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic)
	p := pipeline.New(cat, adapter, cfg.Pipeline, pipeline.Hooks{})

	if st.store != nil {
		run, err := st.store.CreateRun(ctx, company, batchFlags.year)
		if err != nil {
			return nil, eris.Wrapf(err, "cmd: create run for %s", company)
		}
		st.runID = run.ID
	}

	bank, err := p.Run(ctx, company, batchFlags.year, sourceFile, doc)
	if err != nil {
		st.fail(ctx, err)
		return nil, eris.Wrapf(err, "cmd: extract %s", company)
	}
	adapter.Usage().LogCost(cfg.Anthropic.Model, "batch")

	if err := st.complete(ctx, bank); err != nil {
		return nil, err
	}

	return bank, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFlags.inputDir, "input", "", "directory with one processed report subdirectory per bank")
	batchCmd.Flags().IntVar(&batchFlags.year, "year", 2024, "report year")
	batchCmd.Flags().IntVar(&batchFlags.concurrency, "concurrency", 2, "banks processed in parallel")
	batchCmd.Flags().BoolVar(&batchFlags.noStore, "no-store", false, "skip persisting results")
	_ = batchCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(batchCmd)
}
