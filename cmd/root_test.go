package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"extract", "batch", "export", "runs", "ingest"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "csrd-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestExtractCommand_Flags(t *testing.T) {
	for _, name := range []string{"company", "year", "input", "no-store"} {
		require.NotNil(t, extractCmd.Flags().Lookup(name), "extract should have --%s flag", name)
	}

	assert.Equal(t, "2024", extractCmd.Flags().Lookup("year").DefValue)
}

func TestBatchCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "year", "concurrency", "no-store"} {
		require.NotNil(t, batchCmd.Flags().Lookup(name), "batch should have --%s flag", name)
	}

	assert.Equal(t, "2", batchCmd.Flags().Lookup("concurrency").DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	for _, name := range []string{"company", "year", "out"} {
		require.NotNil(t, exportCmd.Flags().Lookup(name), "export should have --%s flag", name)
	}
}

func TestRunsCommand_HasListSubcommand(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])

	assert.Equal(t, "50", runsListCmd.Flags().Lookup("limit").DefValue)
}

func TestIngestCommand_Flags(t *testing.T) {
	for _, name := range []string{"pdf", "company"} {
		require.NotNil(t, ingestCmd.Flags().Lookup(name), "ingest should have --%s flag", name)
	}
}
