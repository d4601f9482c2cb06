package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/csrd-cli/internal/config"
	"github.com/sells-group/csrd-cli/internal/model"
	"github.com/sells-group/csrd-cli/internal/resilience"
	"github.com/sells-group/csrd-cli/pkg/anthropic"
)

// Adapter resolves indicators through the Anthropic generation service.
// It owns rate limiting and transient-failure retries; every other failure
// mode degrades to a null-value result with an explanatory note rather
// than an error, so one indicator's failure never aborts a run.
type Adapter struct {
	client  anthropic.Client
	cfg     config.AnthropicConfig
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	usage   anthropic.TokenUsage
}

// NewAdapter creates an Adapter from configuration.
func NewAdapter(client anthropic.Client, cfg config.AnthropicConfig) *Adapter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	retry := resilience.DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	retry.OnRetry = resilience.RetryLogger("anthropic.create_message")

	return &Adapter{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		retry:   retry,
	}
}

// Usage returns the token usage accumulated across all calls so far.
func (a *Adapter) Usage() anthropic.TokenUsage {
	return a.usage
}

// llmAnswer mirrors the JSON object the extraction prompt requests.
type llmAnswer struct {
	IndicatorID   string  `json:"indicator_id"`
	IndicatorName string  `json:"indicator_name"`
	Value         any     `json:"value"`
	Unit          string  `json:"unit"`
	Confidence    float64 `json:"confidence"`
	SourcePage    any     `json:"source_page"`
	SourceSection string  `json:"source_section"`
	Notes         string  `json:"notes"`
}

// Extract runs one model-based extraction attempt for the indicator using
// the retrieved context. It always returns a complete result; parse and
// service failures yield a null value with confidence 0.0.
func (a *Adapter) Extract(ctx context.Context, company string, reportYear int, spec *model.IndicatorSpec, rc RetrievedContext) model.ExtractionResult {
	result := model.ExtractionResult{
		IndicatorID:   spec.ID,
		IndicatorName: spec.Name,
		Unit:          spec.Unit,
	}

	raw, err := a.generate(ctx, BuildExtractionPrompt(company, reportYear, spec, rc))
	if err != nil {
		zap.L().Warn("llm: extraction call failed",
			zap.String("company", company),
			zap.String("indicator", spec.ID),
			zap.Error(err),
		)
		result.Notes = "model extraction failed: " + err.Error()
		return result
	}

	payload, ok := findJSONObject(raw, `"indicator_id"`)
	if !ok {
		result.Notes = "no JSON object in model response"
		return result
	}

	var ans llmAnswer
	if err := json.Unmarshal([]byte(payload), &ans); err != nil {
		zap.L().Warn("llm: unparseable extraction response",
			zap.String("indicator", spec.ID),
			zap.Error(err),
		)
		result.Notes = "unparseable model response"
		return result
	}

	result.SourceSection = ans.SourceSection
	result.Notes = ans.Notes
	result.SetConfidence(ans.Confidence)
	if page, ok := coerceInt(ans.SourcePage); ok && page > 0 {
		result.SourcePage = &page
	}

	if value, ok := coerceNumber(ans.Value); ok {
		value = rescaleIntoRange(value, spec, &result)
		result.Value = &value
	}

	return result
}

// rescaleIntoRange applies the single-shot kilo-scale correction: if the
// value is outside the expected range, multiply or divide by 1000 when that
// lands it inside. Anything further off is kept as-is with a warning so a
// reviewer sees the raw figure.
func rescaleIntoRange(value float64, spec *model.IndicatorSpec, result *model.ExtractionResult) float64 {
	r := spec.ExpectedRange
	if r.Contains(value) {
		return value
	}

	switch {
	case r.Contains(value * 1000):
		result.PrependNote(fmt.Sprintf("Converted from %g (assumed thousands). ", value))
		return value * 1000
	case r.Contains(value / 1000):
		result.PrependNote(fmt.Sprintf("Converted from %g (divided by 1000). ", value))
		return value / 1000
	default:
		result.PrependNote(fmt.Sprintf("WARNING: value %g outside expected range [%g, %g]. ", value, r.Min, r.Max))
		return value
	}
}

// generate sends one prompt through the rate limiter with retry on
// transient failure and returns the response text.
func (a *Adapter) generate(ctx context.Context, prompt string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "llm: rate limit wait")
	}

	temp := a.cfg.Temperature
	resp, err := resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     a.cfg.Model,
			MaxTokens: a.cfg.MaxTokens,
			Messages: []anthropic.Message{
				{Role: "user", Content: prompt},
			},
			Temperature: &temp,
		})
	})
	if err != nil {
		return "", err
	}

	a.usage.Add(resp.Usage)
	return extractText(resp), nil
}
