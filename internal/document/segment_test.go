package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment(t *testing.T) {
	doc := Segment("page one\n---PAGE BREAK---\npage two\n---PAGE BREAK---\npage three")
	require.Equal(t, 3, doc.PageCount())
	assert.Equal(t, "page one\n", doc.Page(0))
	assert.Equal(t, "\npage two\n", doc.Page(1))
	assert.Equal(t, "\npage three", doc.Page(2))
}

func TestSegmentNoMarkers(t *testing.T) {
	doc := Segment("just one page with Scope 1 GHG emissions 4,128")
	assert.Equal(t, 1, doc.PageCount())
}

func TestSegmentEmpty(t *testing.T) {
	doc := Segment("")
	require.Equal(t, 1, doc.PageCount())
	assert.Equal(t, "", doc.Page(0))
}

func TestLoadProcessedFullText(t *testing.T) {
	dir := t.TempDir()
	content := "a\n---PAGE BREAK---\nb"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "full_text.md"), []byte(content), 0o644))

	raw, err := LoadProcessed(dir)
	require.NoError(t, err)
	assert.Equal(t, content, raw)
}

func TestLoadProcessedPageFiles(t *testing.T) {
	dir := t.TempDir()
	pagesDir := filepath.Join(dir, "pages")
	require.NoError(t, os.MkdirAll(pagesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pagesDir, "page_001.md"), []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pagesDir, "page_002.md"), []byte("second"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pagesDir, "notes.txt"), []byte("ignored"), 0o644))

	raw, err := LoadProcessed(dir)
	require.NoError(t, err)

	doc := Segment(raw)
	require.Equal(t, 2, doc.PageCount())
	assert.Contains(t, doc.Page(0), "first")
	assert.Contains(t, doc.Page(1), "second")
}

func TestLoadProcessedMissing(t *testing.T) {
	_, err := LoadProcessed(t.TempDir())
	assert.Error(t, err)
}
