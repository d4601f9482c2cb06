package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/csrd-cli/internal/model"
)

// PatternConfidence is the fixed confidence assigned to deterministic
// pattern extractions.
const PatternConfidence = 0.85

// corroborationWindow is the half-width, in characters, of the excerpt
// checked for search-term corroboration around a pattern match.
const corroborationWindow = 150

// numericShape matches a capture group that looks like a number with
// optional thousands/decimal separators.
var numericShape = regexp.MustCompile(`^[\d\s,\.]+$`)

// PatternMatch is a validated deterministic extraction.
type PatternMatch struct {
	Value   float64
	Page    int    // 1-based
	Excerpt string // corroboration window around the match
}

// TryExtract attempts to resolve the indicator directly from text, without
// a model call. Patterns are tried in catalog order, pages in document
// order, matches in page order; every capture group of every match is a
// candidate, and the first one that survives validation wins. A rejected
// candidate (year-like, out of range, uncorroborated) moves on to the next
// group or match, not the next page. A pure function of its inputs.
func TryExtract(doc model.Document, spec *model.IndicatorSpec) (PatternMatch, bool) {
	for _, re := range spec.Patterns {
		for i, page := range doc.Pages {
			for _, loc := range re.FindAllStringSubmatchIndex(page, -1) {
				value, ok := acceptCandidate(page, loc, spec)
				if !ok {
					continue
				}
				excerpt, corroborated := corroborate(page, loc[0], loc[1], spec.SearchTerms)
				if !corroborated {
					continue
				}
				return PatternMatch{Value: value, Page: i + 1, Excerpt: excerpt}, true
			}
		}
	}
	return PatternMatch{}, false
}

// acceptCandidate walks the capture groups of one match and returns the
// first group value that parses and survives the year and range filters.
func acceptCandidate(page string, loc []int, spec *model.IndicatorSpec) (float64, bool) {
	matched := strings.ToLower(page[loc[0]:loc[1]])

	for g := 1; g*2 < len(loc); g++ {
		value, ok := parseNumericGroup(page, loc, g)
		if !ok {
			continue
		}

		// Year-like values on non-year indicators are almost always a
		// reporting year picked up next to the real figure.
		if !spec.YearValued() && value >= 2010 && value <= 2030 {
			continue
		}

		// Kilo-unit markers in the matched text mean the figure is in
		// thousands of the base unit.
		for _, marker := range spec.KiloMarkers {
			if strings.Contains(matched, strings.ToLower(marker)) {
				value *= 1000
				break
			}
		}

		if !spec.ExpectedRange.Contains(value) {
			continue
		}

		return value, true
	}
	return 0, false
}

// parseNumericGroup parses capture group g of a match if it has a numeric
// shape, stripping spaces and thousands separators.
func parseNumericGroup(page string, loc []int, g int) (float64, bool) {
	start, end := loc[g*2], loc[g*2+1]
	if start < 0 {
		return 0, false
	}
	raw := page[start:end]
	if !numericShape.MatchString(raw) {
		return 0, false
	}
	cleaned := strings.NewReplacer(" ", "", ",", "").Replace(raw)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// corroborate takes the window around a match and checks that at least one
// of the indicator's first five search terms appears inside it.
func corroborate(page string, start, end int, searchTerms []string) (string, bool) {
	lo := start - corroborationWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + corroborationWindow
	if hi > len(page) {
		hi = len(page)
	}
	window := page[lo:hi]
	windowLower := strings.ToLower(window)

	terms := searchTerms
	if len(terms) > 5 {
		terms = terms[:5]
	}
	for _, term := range terms {
		if strings.Contains(windowLower, strings.ToLower(term)) {
			return window, true
		}
	}
	return window, false
}
