// ABOUTME: CLI command for exporting a date-scoped view of the Oura data.
// ABOUTME: Supports JSON, YAML, Markdown, and Parquet output.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/oura/internal/export"
)

var (
	exportOutput string
	exportRange  rangeFlags
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export Oura data",
	Long: `Export the summary and per-day records for a date range.

FORMATS:

  json       Summary, stats and day rows
  yaml       Same document as YAML
  markdown   Summary table plus a daily table
  parquet    One row per day, for pandas/duckdb (binary; written to a file)

OPTIONS:

  --output, -o   Write to file instead of stdout
  --range, -r    Range preset (default last-30-days)
  --from/--to    Explicit day range

EXAMPLES:

  oura export json                        # Print JSON
  oura export yaml -o oura.yaml           # Save to file
  oura export markdown --range this-month
  oura export parquet                     # Writes oura-<today>.parquet`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown", "parquet"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(args[0])
		if err != nil {
			return err
		}

		v, err := exportRange.view()
		if err != nil {
			return err
		}

		data, err := export.Export(v, format, now())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		output := exportOutput
		if output == "" && format == export.FormatParquet {
			output = defaultExportName(format)
		}

		if output != "" {
			if err := os.WriteFile(output, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", output)
			return nil
		}

		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// defaultExportName names a file after today's date.
func defaultExportName(f export.Format) string {
	return "oura-" + now().Format("2006-01-02") + f.Extension()
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout; parquet defaults to a file)")
	exportRange.bind(exportCmd)
	rootCmd.AddCommand(exportCmd)
}
