package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/csrd-cli/internal/model"
	"github.com/sells-group/csrd-cli/internal/store"
)

var runsFlags struct {
	status  string
	company string
	limit   int
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect extraction runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List extraction runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:  model.RunStatus(runsFlags.status),
			Company: runsFlags.company,
			Limit:   runsFlags.limit,
		})
		if err != nil {
			return eris.Wrap(err, "cmd: list runs")
		}

		return formatRunsList(os.Stdout, runs)
	},
}

func formatRunsList(out io.Writer, runs []model.ExtractionRun) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMPANY\tYEAR\tSTATUS\tFOUND\tAVG CONF\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d/%d\t%.3f\t%s\n",
			r.ID, r.Company, r.ReportYear, r.Status,
			r.SuccessfulExtractions, r.TotalIndicators,
			r.AvgConfidence, r.StartedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func init() {
	runsListCmd.Flags().StringVar(&runsFlags.status, "status", "", "filter by status (running, completed, failed)")
	runsListCmd.Flags().StringVar(&runsFlags.company, "company", "", "filter by bank name")
	runsListCmd.Flags().IntVar(&runsFlags.limit, "limit", 50, "maximum runs to list")

	runsCmd.AddCommand(runsListCmd)
	rootCmd.AddCommand(runsCmd)
}
