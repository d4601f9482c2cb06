// Package ocr turns PDF sustainability reports into the page-break-delimited
// text format the extraction pipeline consumes.
package ocr

import "context"

// Extractor converts a PDF into page-break-delimited text.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}
