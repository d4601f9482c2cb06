package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/csrd-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "csrd-cli",
	Short: "CSRD sustainability indicator extraction pipeline",
	Long:  "Extracts a fixed catalog of ESG indicators from page-segmented bank sustainability reports via pattern matching and Claude-based structured extraction.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
