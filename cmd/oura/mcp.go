// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs a stdio-based MCP server over the local Oura data.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/oura/internal/mcp"
	"github.com/harperreed/oura/internal/pipeline"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server reads the bundle written by 'oura fetch' and communicates via
stdin/stdout. Logs go to stderr.

CONFIGURATION:

  {
    "mcpServers": {
      "oura": { "command": "oura", "args": ["mcp"] }
    }
  }

AVAILABLE TOOLS:

  get_summary   Averages and ratings for a date range
  get_chart     Daily chart points for one metric
  get_stats     Record counts and data freshness
  list_runs     Recent fetch runs

AVAILABLE RESOURCES:

  oura://summary    Last 30 days summary
  oura://latest     Latest record per collection
  oura://rejected   Records rejected at load time`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDB()
		if err != nil {
			return err
		}

		server, err := mcp.NewServer(pipeline.NewLoader(cfg.BundlePath(), logger), store, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
