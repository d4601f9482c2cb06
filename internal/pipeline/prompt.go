package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/csrd-cli/internal/model"
)

const extractionPrompt = `You are an expert ESG data analyst extracting ONE SPECIFIC indicator from %s's %d sustainability report.

## TARGET INDICATOR
- ID: %s
- Name: %s
- Expected Unit: %s
- Expected Range: %g to %g

## SEARCH GUIDANCE
Look for these terms: %s
Check sections related to: %s
%s
## EXTRACTION RULES
1. Only extract values for the %d reporting year (or FY%d). If a table has multiple years, select the %d column.
2. Tables use "|" as column separator. Match the row label to the indicator and the column header to the reporting year.
3. Values may use commas, dots, or spaces as thousand separators; in some locales comma is the decimal separator. Use context to decide.
4. If both location-based and market-based figures exist, prefer market-based.
5. Years, page numbers, and reference codes are NOT indicator values.
6. Confidence scoring: 1.0 value explicitly stated with the exact indicator name; 0.85-0.95 clear context but different wording; 0.6-0.8 requires interpretation; 0.3-0.5 estimated or unclear; 0.0 not found.

## DOCUMENT CONTENT
Relevant pages: %v

%s

## OUTPUT FORMAT (JSON only, no markdown)
{"indicator_id": "%s", "indicator_name": "%s", "value": <number or null>, "unit": "%s", "confidence": <0.0-1.0>, "source_page": <page number or null>, "source_section": "<section name if found>", "notes": "<where you found it OR why it could not be found>"}`

const verificationPrompt = `Verify this extracted ESG value for %s:

INDICATOR: %s (%s)
EXTRACTED VALUE: %v %s
EXPECTED RANGE: %g to %g

DOCUMENT EXCERPT:
%s

VERIFICATION TASK:
1. Find the value %v (or similar) in the text
2. Confirm it matches the indicator "%s"
3. Confirm it is for year %d
4. Check the unit is correct

OUTPUT (JSON only):
{"verified": <true/false>, "correct_value": <number or null if wrong>, "correct_unit": "<unit>", "confidence": <0.0-1.0>, "reason": "<explanation>"}`

const frenchHint = `
LANGUAGE NOTE: this document is in French. Look for French equivalents:
- "emissions"/"émissions" = emissions, "collaborateurs"/"effectifs" = employees
- "conseil d'administration" = board, "formation" = training
- Numbers use spaces as thousand separators (e.g. "100 000" = 100000)
- GHG emissions are often stated in ktCO2e (kilotonnes), not tCO2e; convert kt to t by multiplying by 1000
- Report group-level totals, never subsidiary figures
`

const spanishHint = `
LANGUAGE NOTE: this document may contain Spanish. Look for Spanish equivalents:
- "emisiones" = emissions, "empleados" = employees
- "consejo" = board, "formación" = training
- Employee tables show Male/Female columns with a Total row; for total employees sum both totals
`

// localeHint returns language-specific extraction guidance for banks whose
// reports are not primarily in English.
func localeHint(company string) string {
	c := strings.ToLower(company)
	switch {
	case strings.Contains(c, "bpce"):
		return frenchHint
	case strings.Contains(c, "bbva"):
		return spanishHint
	default:
		return ""
	}
}

// BuildExtractionPrompt assembles the single-indicator extraction
// instruction sent to the model.
func BuildExtractionPrompt(company string, reportYear int, spec *model.IndicatorSpec, rc RetrievedContext) string {
	terms := spec.SearchTerms
	if len(terms) > 10 {
		terms = terms[:10]
	}
	hints := spec.SectionHints
	if len(hints) > 6 {
		hints = hints[:6]
	}

	return fmt.Sprintf(extractionPrompt,
		company, reportYear,
		spec.ID, spec.Name, spec.Unit,
		spec.ExpectedRange.Min, spec.ExpectedRange.Max,
		strings.Join(terms, ", "),
		strings.Join(hints, ", "),
		localeHint(company),
		reportYear, reportYear, reportYear,
		rc.Pages,
		rc.Text,
		spec.ID, spec.Name, spec.Unit,
	)
}

// maxVerificationContextChars bounds the excerpt resent for verification.
const maxVerificationContextChars = 20000

// BuildVerificationPrompt assembles the narrower confirm-or-correct
// instruction for a mid-confidence candidate value.
func BuildVerificationPrompt(company string, reportYear int, spec *model.IndicatorSpec, value float64, contextText string) string {
	if len(contextText) > maxVerificationContextChars {
		contextText = contextText[:maxVerificationContextChars]
	}
	return fmt.Sprintf(verificationPrompt,
		company,
		spec.Name, spec.ID,
		value, spec.Unit,
		spec.ExpectedRange.Min, spec.ExpectedRange.Max,
		contextText,
		value, spec.Name, reportYear,
	)
}
