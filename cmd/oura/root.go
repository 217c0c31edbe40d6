// ABOUTME: Root Cobra command for the oura CLI.
// ABOUTME: Loads config and logger up front; opens the sqlite store on demand.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/oura/internal/config"
	"github.com/harperreed/oura/internal/logging"
	"github.com/harperreed/oura/internal/models"
	"github.com/harperreed/oura/internal/pipeline"
	"github.com/harperreed/oura/internal/storage"
)

var (
	cfg     *config.Config
	logger  *logging.Logger
	db      *storage.DB
	logMode string

	// now is swapped in tests.
	now = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "oura",
	Short: "Personal Oura ring dashboard",
	Long: `Oura pulls your Oura ring data into local JSON files and turns it into
dashboard summaries, charts, and exports.

QUICK START:

  $ export OURA_TOKEN=...          # Personal access token from cloud.ouraring.com
  $ oura fetch                     # Download sleep, readiness, activity, heart rate
  $ oura summary                   # Averages for the last 30 days
  $ oura chart sleep --last 7      # Daily sleep scores
  $ oura export parquet            # Per-day table for analysis

DATE RANGES:

  --range last-7-days | last-2-weeks | last-30-days | this-week |
          this-month | last-month | last-3-months | year-to-date
  --from 2025-01-01 --to 2025-01-31

SERVING:

  $ oura auth hash                 # Hash a dashboard password for the config
  $ oura serve --addr :8080        # JSON API for the dashboard
  $ oura mcp                       # Model Context Protocol server on stdio

CONFIGURATION:

  ~/.config/oura/config.json, overridden by OURA_TOKEN, OURA_API_BASE_URL,
  OURA_DATA_DIR, OURA_PASSWORD_HASH, OURA_SESSION_SECRET and OURA_LOG_MODE.

DATA STORAGE:

  Fetched files live in ~/.local/share/oura. Run history and sessions are
  kept in ~/.local/state/oura/oura.db.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		mode := cfg.GetLogMode()
		if logMode != "" {
			mode = logMode
		}
		logger, err = logging.New(mode)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeResources()
	},
}

// closeResources flushes the logger and closes the store. Cobra skips the
// post-run hook when a command fails, so main calls it as well.
func closeResources() error {
	if logger != nil {
		logger.Sync()
	}
	if db != nil {
		err := db.Close()
		db = nil
		return err
	}
	return nil
}

// openDB opens the run and session store the first time a command needs it.
func openDB() (storage.Repository, error) {
	if db != nil {
		return db, nil
	}
	var err error
	db, err = storage.Open(cfg.GetDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadDataset reads the bundle written by `oura fetch`.
func loadDataset() (*pipeline.Dataset, error) {
	ds, err := pipeline.Load(cfg.BundlePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no data at %s; run 'oura fetch' first", cfg.BundlePath())
		}
		return nil, err
	}
	if len(ds.Rejected) > 0 {
		logger.Warn("records rejected at load", "count", len(ds.Rejected))
	}
	return ds, nil
}

// rangeFlags are the date range selectors shared by the view commands.
type rangeFlags struct {
	preset string
	from   string
	to     string
}

func (r *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.preset, "range", "r", string(models.DefaultPreset), "range preset ("+models.PresetNames()+")")
	cmd.Flags().StringVar(&r.from, "from", "", "start day (YYYY-MM-DD), requires --to")
	cmd.Flags().StringVar(&r.to, "to", "", "end day (YYYY-MM-DD), requires --from")
}

func (r *rangeFlags) reset() {
	r.preset, r.from, r.to = string(models.DefaultPreset), "", ""
}

// scoped loads the dataset and scopes it to the selected range.
func (r *rangeFlags) scoped() (*pipeline.Dataset, pipeline.View, error) {
	dr, err := models.ResolveRange(r.preset, r.from, r.to, now())
	if err != nil {
		return nil, pipeline.View{}, err
	}
	ds, err := loadDataset()
	if err != nil {
		return nil, pipeline.View{}, err
	}
	return ds, ds.View(dr), nil
}

func (r *rangeFlags) view() (pipeline.View, error) {
	_, v, err := r.scoped()
	return v, err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "log mode: quiet, dev, or prod")
}
