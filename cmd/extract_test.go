package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDocument_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	raw := "page one\n---PAGE BREAK---\npage two"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	doc, sourceFile, err := loadDocument(path)
	require.NoError(t, err)

	assert.Equal(t, "report.md", sourceFile)
	assert.Equal(t, 2, doc.PageCount())
}

func TestLoadDocument_ProcessedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bpce")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	raw := "intro\n---PAGE BREAK---\nscope 1 emissions\n---PAGE BREAK---\nannex"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "full_text.md"), []byte(raw), 0o644))

	doc, sourceFile, err := loadDocument(dir)
	require.NoError(t, err)

	assert.Equal(t, "bpce", sourceFile)
	assert.Equal(t, 3, doc.PageCount())
}

func TestLoadDocument_Missing(t *testing.T) {
	_, _, err := loadDocument(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
