package pipeline

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sells-group/csrd-cli/internal/model"
)

// Verification is triggered only for the mid-confidence band: results below
// it are too weak to be worth a second call, results above it are accepted
// as-is.
const (
	verifyBandLow  = 0.3
	verifyBandHigh = 0.75
)

// verifyConfidenceFloor is the minimum confidence after a failed
// verification.
const verifyConfidenceFloor = 0.2

// verification mirrors the JSON object the verification prompt requests.
type verification struct {
	Verified     bool    `json:"verified"`
	CorrectValue any     `json:"correct_value"`
	CorrectUnit  string  `json:"correct_unit"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`
}

// NeedsVerification reports whether the result carries a value in the
// mid-confidence band.
func NeedsVerification(r model.ExtractionResult) bool {
	return r.Value != nil &&
		r.ConfidenceScore > verifyBandLow &&
		r.ConfidenceScore < verifyBandHigh
}

// Verify re-asks the model to confirm a candidate value against the same
// context. A failed or unparseable verification call degrades to "assume
// verified, confidence 0.5", leaving the result untouched. An explicit
// verified=false lowers confidence by 0.2, floored at 0.2.
func (a *Adapter) Verify(ctx context.Context, company string, reportYear int, spec *model.IndicatorSpec, result model.ExtractionResult, contextText string) model.ExtractionResult {
	v := verification{Verified: true, Confidence: 0.5, Reason: "verification failed"}

	raw, err := a.generate(ctx, BuildVerificationPrompt(company, reportYear, spec, *result.Value, contextText))
	if err != nil {
		zap.L().Warn("llm: verification call failed",
			zap.String("company", company),
			zap.String("indicator", spec.ID),
			zap.Error(err),
		)
	} else if payload, ok := findJSONObject(raw, `"verified"`); ok {
		var parsed verification
		if jerr := json.Unmarshal([]byte(payload), &parsed); jerr == nil {
			v = parsed
		}
	}

	if !v.Verified {
		conf := result.ConfidenceScore - 0.2
		if conf < verifyConfidenceFloor {
			conf = verifyConfidenceFloor
		}
		result.SetConfidence(conf)
		result.PrependNote("Verification rejected value: " + v.Reason + ". ")
		return result
	}

	if corrected, ok := coerceNumber(v.CorrectValue); ok {
		result.Value = &corrected
		result.SetConfidence(v.Confidence)
		result.PrependNote("Verified: " + v.Reason + ". ")
	}

	return result
}
