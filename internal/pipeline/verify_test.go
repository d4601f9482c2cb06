package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/csrd-cli/internal/model"
)

func midConfidenceResult(value, confidence float64) model.ExtractionResult {
	r := model.ExtractionResult{
		IndicatorID:   "E1",
		IndicatorName: "Scope 1 GHG Emissions",
		Value:         &value,
		Unit:          "tCO2e",
		Notes:         "initial note",
	}
	r.SetConfidence(confidence)
	return r
}

func TestNeedsVerificationBand(t *testing.T) {
	assert.True(t, NeedsVerification(midConfidenceResult(4128, 0.5)))
	assert.True(t, NeedsVerification(midConfidenceResult(4128, 0.31)))
	assert.True(t, NeedsVerification(midConfidenceResult(4128, 0.74)))

	// Band edges are exclusive.
	assert.False(t, NeedsVerification(midConfidenceResult(4128, 0.3)))
	assert.False(t, NeedsVerification(midConfidenceResult(4128, 0.75)))
	assert.False(t, NeedsVerification(midConfidenceResult(4128, 0.9)))
	assert.False(t, NeedsVerification(midConfidenceResult(4128, 0.1)))

	// Null values are never verified.
	assert.False(t, NeedsVerification(model.ExtractionResult{ConfidenceScore: 0.5}))
}

func TestVerifyConfirmedWithCorrection(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"verified": true, "correct_value": 4200, "confidence": 0.85, "reason": "table shows 4,200 for 2024"}`,
	}}
	adapter := testAdapter(client)

	result := adapter.Verify(context.Background(), "BPCE", 2024, testSpec(), midConfidenceResult(4128, 0.5), "context")
	require.NotNil(t, result.Value)
	assert.Equal(t, 4200.0, *result.Value)
	assert.Equal(t, 0.85, result.ConfidenceScore)
	assert.Contains(t, result.Notes, "Verified:")
	assert.Contains(t, result.Notes, "initial note")
}

func TestVerifyConfirmedWithoutCorrectionLeavesResult(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"verified": true, "correct_value": null, "confidence": 0.9, "reason": "value present"}`,
	}}
	adapter := testAdapter(client)

	result := adapter.Verify(context.Background(), "BPCE", 2024, testSpec(), midConfidenceResult(4128, 0.5), "context")
	require.NotNil(t, result.Value)
	assert.Equal(t, 4128.0, *result.Value)
	assert.Equal(t, 0.5, result.ConfidenceScore)
	assert.Equal(t, "initial note", result.Notes)
}

func TestVerifyRejectedLowersConfidence(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"verified": false, "correct_value": null, "confidence": 0.2, "reason": "value is a page number"}`,
	}}
	adapter := testAdapter(client)

	result := adapter.Verify(context.Background(), "BPCE", 2024, testSpec(), midConfidenceResult(4128, 0.5), "context")
	assert.Equal(t, 0.3, result.ConfidenceScore)
	assert.Contains(t, result.Notes, "Verification rejected value")
}

func TestVerifyRejectedFloorsAtPointTwo(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"verified": false, "confidence": 0.1, "reason": "not found"}`,
	}}
	adapter := testAdapter(client)

	result := adapter.Verify(context.Background(), "BPCE", 2024, testSpec(), midConfidenceResult(4128, 0.31), "context")
	assert.Equal(t, 0.2, result.ConfidenceScore)
}

func TestVerifyServiceFailureAssumesVerified(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	adapter := testAdapter(client)

	result := adapter.Verify(context.Background(), "BPCE", 2024, testSpec(), midConfidenceResult(4128, 0.5), "context")
	require.NotNil(t, result.Value)
	assert.Equal(t, 4128.0, *result.Value)
	assert.Equal(t, 0.5, result.ConfidenceScore)
	assert.Equal(t, "initial note", result.Notes)
}

func TestVerifyUnparseableResponseAssumesVerified(t *testing.T) {
	client := &fakeClient{responses: []string{"sure, looks fine to me"}}
	adapter := testAdapter(client)

	result := adapter.Verify(context.Background(), "BPCE", 2024, testSpec(), midConfidenceResult(4128, 0.6), "context")
	assert.Equal(t, 0.6, result.ConfidenceScore)
	assert.Equal(t, "initial note", result.Notes)
}
