package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/csrd-cli/internal/config"
	"github.com/sells-group/csrd-cli/internal/model"
	"github.com/sells-group/csrd-cli/pkg/anthropic"
)

// fakeClient replays canned responses and records the requests it saw.
type fakeClient struct {
	responses []string
	err       error
	requests  []anthropic.MessageRequest
}

func (f *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	text := ""
	if len(f.responses) > 0 {
		text = f.responses[0]
		if len(f.responses) > 1 {
			f.responses = f.responses[1:]
		}
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}, nil
}

func testAdapter(client anthropic.Client) *Adapter {
	return NewAdapter(client, config.AnthropicConfig{
		Model:             "claude-sonnet-4-5-20250929",
		MaxTokens:         4096,
		Temperature:       0.05,
		MaxAttempts:       1,
		RequestsPerMinute: 100000,
	})
}

func testContext() RetrievedContext {
	return RetrievedContext{Text: "=== PAGE 1 (relevance score: 40) ===\nScope 1 data\n\n", Pages: []int{1}}
}

func TestAdapterExtractSuccess(t *testing.T) {
	client := &fakeClient{responses: []string{
		"```json\n{\"indicator_id\": \"E1\", \"value\": \"4,128\", \"unit\": \"tCO2e\", \"confidence\": 0.9, \"source_page\": 317, \"source_section\": \"E1-6\", \"notes\": \"found in table\"}\n```",
	}}
	adapter := testAdapter(client)

	result := adapter.Extract(context.Background(), "BPCE", 2024, testSpec(), testContext())
	require.NotNil(t, result.Value)
	assert.Equal(t, 4128.0, *result.Value)
	assert.Equal(t, 0.9, result.ConfidenceScore)
	require.NotNil(t, result.SourcePage)
	assert.Equal(t, 317, *result.SourcePage)
	assert.Equal(t, "E1-6", result.SourceSection)
	assert.Equal(t, "found in table", result.Notes)

	usage := adapter.Usage()
	assert.Equal(t, int64(100), usage.InputTokens)
}

func TestAdapterExtractServiceFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("invalid_request_error")}
	adapter := testAdapter(client)

	result := adapter.Extract(context.Background(), "BPCE", 2024, testSpec(), testContext())
	assert.Nil(t, result.Value)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	assert.Contains(t, result.Notes, "model extraction failed")
}

func TestAdapterExtractUnparseableResponse(t *testing.T) {
	client := &fakeClient{responses: []string{"I could not find the indicator."}}
	adapter := testAdapter(client)

	result := adapter.Extract(context.Background(), "BPCE", 2024, testSpec(), testContext())
	assert.Nil(t, result.Value)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	assert.Equal(t, "no JSON object in model response", result.Notes)
}

func TestAdapterExtractClampsConfidence(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"indicator_id": "E1", "value": 4128, "confidence": 1.7, "notes": ""}`,
	}}
	adapter := testAdapter(client)

	result := adapter.Extract(context.Background(), "BPCE", 2024, testSpec(), testContext())
	assert.Equal(t, 1.0, result.ConfidenceScore)
}

func TestAdapterExtractRescalesThousands(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"indicator_id": "E1", "value": 576, "confidence": 0.8, "notes": "reported in ktCO2e"}`,
	}}
	adapter := testAdapter(client)

	spec := testSpec()
	spec.ExpectedRange = model.Range{Min: 100000, Max: 1000000}
	result := adapter.Extract(context.Background(), "BPCE", 2024, spec, testContext())
	require.NotNil(t, result.Value)
	assert.Equal(t, 576000.0, *result.Value)
	assert.Contains(t, result.Notes, "Converted from 576 (assumed thousands).")
	assert.Contains(t, result.Notes, "reported in ktCO2e")
}

func TestAdapterExtractRescalesDownward(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"indicator_id": "E4", "value": 125000, "confidence": 0.7, "notes": ""}`,
	}}
	adapter := testAdapter(client)

	spec := testSpec()
	spec.ExpectedRange = model.Range{Min: 1, Max: 1000}
	result := adapter.Extract(context.Background(), "BBVA", 2024, spec, testContext())
	require.NotNil(t, result.Value)
	assert.Equal(t, 125.0, *result.Value)
	assert.Contains(t, result.Notes, "divided by 1000")
}

func TestAdapterExtractRescalesDownWhenDividedValueFits(t *testing.T) {
	// 150000 against (100,1000): /1000 lands at 150, inside the range,
	// so the single-shot correction applies.
	client := &fakeClient{responses: []string{
		`{"indicator_id": "E1", "value": 150000, "confidence": 0.8, "notes": "base note"}`,
	}}
	adapter := testAdapter(client)

	spec := testSpec()
	spec.ExpectedRange = model.Range{Min: 100, Max: 1000}
	result := adapter.Extract(context.Background(), "BPCE", 2024, spec, testContext())
	require.NotNil(t, result.Value)
	assert.Equal(t, 150.0, *result.Value)
	assert.Contains(t, result.Notes, "divided by 1000")
	assert.Contains(t, result.Notes, "base note")
}

func TestAdapterExtractLeavesFarOffValueUnchanged(t *testing.T) {
	// 50000 against (100,1000): /1000 gives 50 (below min) and x1000
	// gives 5e7 (above max), so the value stays with a warning.
	client := &fakeClient{responses: []string{
		`{"indicator_id": "E1", "value": 50000, "confidence": 0.8, "notes": "base note"}`,
	}}
	adapter := testAdapter(client)

	spec := testSpec()
	spec.ExpectedRange = model.Range{Min: 100, Max: 1000}
	result := adapter.Extract(context.Background(), "BPCE", 2024, spec, testContext())
	require.NotNil(t, result.Value)
	assert.Equal(t, 50000.0, *result.Value)
	assert.Contains(t, result.Notes, "WARNING: value 50000 outside expected range [100, 1000].")
	assert.Contains(t, result.Notes, "base note")
}

func TestAdapterExtractNullValue(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"indicator_id": "E1", "value": null, "confidence": 0.0, "notes": "not disclosed"}`,
	}}
	adapter := testAdapter(client)

	result := adapter.Extract(context.Background(), "BPCE", 2024, testSpec(), testContext())
	assert.Nil(t, result.Value)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	assert.Equal(t, "not disclosed", result.Notes)
}

func TestAdapterSendsLocaleHint(t *testing.T) {
	client := &fakeClient{responses: []string{`{"indicator_id": "E1", "value": null, "confidence": 0}`}}
	adapter := testAdapter(client)

	adapter.Extract(context.Background(), "bpce", 2024, testSpec(), testContext())
	require.Len(t, client.requests, 1)
	prompt := client.requests[0].Messages[0].Content
	assert.Contains(t, prompt, "French")

	client2 := &fakeClient{responses: []string{`{"indicator_id": "E1", "value": null, "confidence": 0}`}}
	adapter2 := testAdapter(client2)
	adapter2.Extract(context.Background(), "BBVA", 2024, testSpec(), testContext())
	assert.Contains(t, client2.requests[0].Messages[0].Content, "Spanish")
}

func TestAdapterUsesConfiguredTemperature(t *testing.T) {
	client := &fakeClient{responses: []string{`{"indicator_id": "E1", "value": null, "confidence": 0}`}}
	adapter := testAdapter(client)

	adapter.Extract(context.Background(), "BPCE", 2024, testSpec(), testContext())
	require.Len(t, client.requests, 1)
	require.NotNil(t, client.requests[0].Temperature)
	assert.Equal(t, 0.05, *client.requests[0].Temperature)
}
