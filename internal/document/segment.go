// Package document turns raw page-break-delimited report text into the
// ordered page sequence the extraction pipeline consumes. It does not care
// how the text was produced (pdftotext, OCR, manual paste).
package document

import (
	"strings"

	"github.com/sells-group/csrd-cli/internal/model"
)

// PageBreakMarker is the literal delimiter between pages in processed
// report text.
const PageBreakMarker = "---PAGE BREAK---"

// Segment splits raw text into an ordered page sequence. No page-count
// validation is performed; an empty document yields a single empty page.
func Segment(raw string) model.Document {
	return model.Document{Pages: strings.Split(raw, PageBreakMarker)}
}
