// ABOUTME: CLI command that pulls Oura collections into the local data directory.
// ABOUTME: Cancels cleanly on Ctrl-C and records every run in the sqlite store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/oura/internal/config"
	"github.com/harperreed/oura/internal/ingest"
)

var fetchStart string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download Oura data",
	Long: `Download sleep, readiness, activity, heart rate and daily sleep data
from the Oura API into the data directory, then write the combined bundle
the dashboard commands read.

Endpoints are fetched one after another. The first failure stops the run;
files already written are kept. Each run is recorded (see 'oura runs').

EXAMPLES:

  oura fetch                      # From the configured start date to today
  oura fetch --start 2025-01-01   # Narrower window`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Token == "" {
			return fmt.Errorf("no API token; set %s or add \"token\" to %s", config.EnvToken, config.GetConfigPath())
		}

		store, err := openDB()
		if err != nil {
			return err
		}

		start := cfg.GetStartDate()
		if fetchStart != "" {
			start = fetchStart
		}

		out := cmd.OutOrStdout()
		green := color.New(color.FgGreen)
		faint := color.New(color.Faint)

		job, err := ingest.New(ingest.Options{
			BaseURL:   cfg.GetBaseURL(),
			Token:     cfg.Token,
			StartDate: start,
			DataDir:   cfg.GetDataDir(),
			Now:       now,
			Recorder:  store,
			Log:       logger,
			OnSaved: func(ep ingest.Endpoint, records int) {
				green.Fprintf(out, "✓ %-16s", ep.Title)
				faint.Fprintf(out, " %d records -> %s\n", records, ep.File)
			},
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(out, "Fetching %s to %s\n", start, job.EndDate())
		res, err := job.Run(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return errors.New("fetch cancelled")
			}
			if hint := ingest.HintFor(err); hint != "" {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "hint: %s\n", hint)
			}
			return fmt.Errorf("fetch failed (%s): %w", ingest.KindOf(err), err)
		}

		green.Fprintf(out, "✓ Bundle written to %s\n", res.BundlePath)
		faint.Fprintf(out, "  run %s\n", res.Run.ID.String()[:8])
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "first day to fetch (YYYY-MM-DD)")
	rootCmd.AddCommand(fetchCmd)
}
