// Package pipeline implements the layered indicator extraction engine:
// relevance-ranked context retrieval, deterministic pattern extraction,
// model-based structured extraction with verification, and per-document
// aggregation.
package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/csrd-cli/internal/model"
)

// DefaultMaxContextChars bounds the assembled context window when the
// configured limit is zero.
const DefaultMaxContextChars = 40000

// maxRetrievedPages caps how many pages one context window may contain.
const maxRetrievedPages = 20

var digitRunRe = regexp.MustCompile(`\d{3,}`)

// RetrievedContext is the bounded context window assembled for one
// indicator, plus the 1-based page numbers included, in selection order.
type RetrievedContext struct {
	Text  string
	Pages []int
}

type scoredPage struct {
	index int // 0-based
	score int
	text  string
}

// ScorePage computes the heuristic relevance of one page to one indicator.
// The score accumulates additively; a page scoring 0 is irrelevant.
func ScorePage(page string, spec *model.IndicatorSpec) int {
	lower := strings.ToLower(page)
	padded := " " + lower + " "

	score := 0
	for _, term := range spec.SearchTerms {
		t := strings.ToLower(term)
		if strings.Contains(lower, t) {
			score += 10
			// Whitespace-bounded exact phrase is a stronger signal than a
			// bare substring hit.
			if strings.Contains(padded, " "+t+" ") {
				score += 5
			}
		}
	}

	for _, hint := range spec.SectionHints {
		if strings.Contains(lower, strings.ToLower(hint)) {
			score += 3
		}
	}

	// Tabular structure heuristic: pages dense in column separators tend to
	// carry the report's data tables.
	if strings.Count(page, "|") > 10 {
		score += 15
	}

	// Numeric density: more than 5 runs of 3+ consecutive digits.
	if len(digitRunRe.FindAllStringIndex(page, 7)) > 5 {
		score += 5
	}

	for _, re := range spec.Patterns {
		if re.MatchString(page) {
			score += 25
		}
	}

	return score
}

// RetrieveContext ranks the document's pages for the indicator and
// assembles an annotated context window. Pages are taken in descending
// score order, ties broken by ascending page index, until maxRetrievedPages
// are included or the next page's content would exceed maxChars; the loop
// halts on the first page that does not fit rather than skipping it.
func RetrieveContext(doc model.Document, spec *model.IndicatorSpec, maxChars int) RetrievedContext {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	var scored []scoredPage
	for i, page := range doc.Pages {
		if s := ScorePage(page, spec); s > 0 {
			scored = append(scored, scoredPage{index: i, score: s, text: page})
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].score != scored[b].score {
			return scored[a].score > scored[b].score
		}
		return scored[a].index < scored[b].index
	})

	var b strings.Builder
	var pages []int
	used := 0
	for _, sp := range scored {
		if len(pages) == maxRetrievedPages {
			break
		}
		if used+len(sp.text) > maxChars {
			break
		}
		fmt.Fprintf(&b, "=== PAGE %d (relevance score: %d) ===\n%s\n\n", sp.index+1, sp.score, sp.text)
		pages = append(pages, sp.index+1)
		used += len(sp.text)
	}

	return RetrievedContext{Text: b.String(), Pages: pages}
}
