package document

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// LoadProcessed reads the processed text for one report from dir. It
// prefers a single full_text.md; if that is absent it concatenates the
// per-page files under pages/ (page_*.md, sorted by name) with the page
// break marker so the result segments identically.
func LoadProcessed(dir string) (string, error) {
	fullPath := filepath.Join(dir, "full_text.md")
	if data, err := os.ReadFile(fullPath); err == nil {
		return string(data), nil
	}

	pagesDir := filepath.Join(dir, "pages")
	entries, err := os.ReadDir(pagesDir)
	if err != nil {
		return "", eris.Wrapf(err, "document: no full_text.md and no pages dir in %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "page_") && strings.HasSuffix(name, ".md") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", eris.Errorf("document: no page files in %s", pagesDir)
	}
	sort.Strings(names)

	texts := make([]string, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(pagesDir, name))
		if err != nil {
			return "", eris.Wrapf(err, "document: read %s", name)
		}
		texts = append(texts, string(data))
	}

	return strings.Join(texts, "\n\n"+PageBreakMarker+"\n\n"), nil
}
