package pipeline

import "github.com/sells-group/csrd-cli/internal/model"

// Hooks carries optional progress callbacks. Nil fields are skipped.
// Callbacks run synchronously on the pipeline goroutine, so they must be
// fast and must not block.
type Hooks struct {
	OnIndicatorStarted  func(company string, spec *model.IndicatorSpec)
	OnIndicatorResolved func(company string, result model.ExtractionResult)
	OnBankResolved      func(result *model.BankExtractionResult)
}

func (h Hooks) indicatorStarted(company string, spec *model.IndicatorSpec) {
	if h.OnIndicatorStarted != nil {
		h.OnIndicatorStarted(company, spec)
	}
}

func (h Hooks) indicatorResolved(company string, result model.ExtractionResult) {
	if h.OnIndicatorResolved != nil {
		h.OnIndicatorResolved(company, result)
	}
}

func (h Hooks) bankResolved(result *model.BankExtractionResult) {
	if h.OnBankResolved != nil {
		h.OnBankResolved(result)
	}
}
