package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/csrd-cli/internal/catalog"
	"github.com/sells-group/csrd-cli/internal/config"
	"github.com/sells-group/csrd-cli/internal/model"
)

// Pipeline runs the layered extraction state machine for one document:
// deterministic pattern attempt, context retrieval, model extraction, and
// the confidence-gated verification pass, per indicator in catalog order.
// Indicators share no mutable state; callers wanting parallelism shard by
// bank and run independent Pipeline instances.
type Pipeline struct {
	catalog             *catalog.Catalog
	adapter             *Adapter
	maxContextChars     int
	confidenceThreshold float64
	hooks               Hooks
}

// New creates a Pipeline.
func New(cat *catalog.Catalog, adapter *Adapter, cfg config.PipelineConfig, hooks Hooks) *Pipeline {
	return &Pipeline{
		catalog:             cat,
		adapter:             adapter,
		maxContextChars:     cfg.MaxContextChars,
		confidenceThreshold: cfg.ConfidenceThreshold,
		hooks:               hooks,
	}
}

// Run resolves every catalog indicator against the document, sequentially
// and in catalog order, then finalizes the bank-level quality metrics.
// Cancellation is honored at indicator boundaries only; a single
// indicator's failure never aborts the run.
func (p *Pipeline) Run(ctx context.Context, company string, reportYear int, sourceFile string, doc model.Document) (*model.BankExtractionResult, error) {
	start := time.Now()
	bank := &model.BankExtractionResult{
		Company:     company,
		ReportYear:  reportYear,
		SourceFile:  sourceFile,
		ExtractedAt: time.Now().UTC(),
	}

	specs := p.catalog.Specs()
	for i := range specs {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pipeline: cancelled")
		}
		spec := &specs[i]

		p.hooks.indicatorStarted(company, spec)
		result := p.resolveIndicator(ctx, company, reportYear, spec, doc)
		bank.Append(result)
		p.hooks.indicatorResolved(company, result)

		zap.L().Info("indicator resolved",
			zap.String("company", company),
			zap.String("indicator", spec.ID),
			zap.Bool("found", result.Value != nil),
			zap.Float64("confidence", result.ConfidenceScore),
		)
	}

	bank.Finalize(p.confidenceThreshold)
	p.hooks.bankResolved(bank)

	zap.L().Info("bank resolved",
		zap.String("company", company),
		zap.Int("report_year", reportYear),
		zap.Int("found", bank.Found()),
		zap.Int("missing", len(bank.MissingIndicators)),
		zap.Float64("avg_confidence", bank.AvgConfidence),
		zap.Duration("duration", time.Since(start)),
	)

	return bank, nil
}

// resolveIndicator is the per-indicator state machine. States are strictly
// linear: pattern attempt, then retrieval, then model extraction, then the
// verification gate. A successful pattern match short-circuits everything
// after it.
func (p *Pipeline) resolveIndicator(ctx context.Context, company string, reportYear int, spec *model.IndicatorSpec, doc model.Document) model.ExtractionResult {
	if m, ok := TryExtract(doc, spec); ok {
		page := m.Page
		result := model.ExtractionResult{
			IndicatorID:   spec.ID,
			IndicatorName: spec.Name,
			Value:         &m.Value,
			Unit:          spec.Unit,
			SourcePage:    &page,
			Notes:         fmt.Sprintf("Pattern match on page %d: %q", m.Page, m.Excerpt),
		}
		result.SetConfidence(PatternConfidence)
		return result
	}

	rc := RetrieveContext(doc, spec, p.maxContextChars)
	if rc.Text == "" {
		result := model.ExtractionResult{
			IndicatorID:   spec.ID,
			IndicatorName: spec.Name,
			Unit:          spec.Unit,
			Notes:         "no relevant context found",
		}
		result.SetConfidence(0)
		return result
	}

	result := p.adapter.Extract(ctx, company, reportYear, spec, rc)
	if NeedsVerification(result) {
		result = p.adapter.Verify(ctx, company, reportYear, spec, result, rc.Text)
	}
	return result
}
