// ABOUTME: CLI command listing recorded ingestion runs.
// ABOUTME: Shows status, window, duration, and failure kind per run.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/oura/internal/models"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent fetch runs",
	Long: `List recent 'oura fetch' runs, newest first.

OUTPUT FORMAT:

  Each line shows: ID  STARTED  STATUS  WINDOW  DURATION  (FAILURE)

EXAMPLES:

  oura runs           # Last 10 runs
  oura runs -n 50`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDB()
		if err != nil {
			return err
		}

		runs, err := store.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, r := range runs {
			failure := ""
			if r.FailureKind != nil {
				failure = faint.Sprintf(" (%s)", *r.FailureKind)
			}
			fmt.Fprintf(out, "%s %s %s %s..%s %s%s\n",
				faint.Sprint(r.ID.String()[:8]),
				faint.Sprint(r.StartedAt.Local().Format("2006-01-02 15:04")),
				statusColor(r.Status).Sprint(padRight(string(r.Status), 8)),
				r.StartDate, r.EndDate,
				r.Duration().Round(time.Millisecond),
				failure)
		}
		return nil
	},
}

func statusColor(s models.RunStatus) *color.Color {
	switch s {
	case models.RunSuccess:
		return color.New(color.FgGreen)
	case models.RunFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "max number of runs")
	rootCmd.AddCommand(runsCmd)
}
