package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/csrd-cli/internal/catalog"
)

func TestRunBatch_ContinuesPastFailedBank(t *testing.T) {
	dir := t.TempDir()
	// Two bank directories, neither with readable report text: both
	// extractions fail, but the batch must finish rather than abort.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bpce"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bbva"), 0o755))
	batchFlags.inputDir = dir

	cat, err := catalog.Default()
	require.NoError(t, err)

	results, failed := runBatch(context.Background(), cat, storeHandle{}, []string{"bpce", "bbva"})

	assert.Empty(t, results)
	assert.Equal(t, 2, failed)
}
