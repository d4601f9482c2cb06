package model

// Document is an ordered sequence of page texts. Page numbers as reported
// in extraction results are 1-based (slice index + 1).
type Document struct {
	Pages []string `json:"pages"`
}

// PageCount returns the number of pages.
func (d Document) PageCount() int {
	return len(d.Pages)
}

// Page returns the text of the 0-based page index, or "" if out of range.
func (d Document) Page(idx int) string {
	if idx < 0 || idx >= len(d.Pages) {
		return ""
	}
	return d.Pages[idx]
}
