// ABOUTME: CLI commands that render the dashboard: summary, chart, and stats.
// ABOUTME: All three read the local bundle and scope it to a date range.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/oura/internal/models"
	"github.com/harperreed/oura/internal/pipeline"
)

var (
	summaryRange rangeFlags
	chartRange   rangeFlags
	statsRange   rangeFlags
	chartLast    int
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show averaged dashboard figures",
	Long: `Show sleep, readiness and activity averages for a date range.

Scores are colored the way the dashboard colors them: green at 85 and
above, cyan from 70, yellow from 50, red below.

EXAMPLES:

  oura summary                         # Last 30 days
  oura summary --range this-month
  oura summary --from 2025-01-01 --to 2025-01-31`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, v, err := summaryRange.scoped()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		sum := v.Summary()
		ratings := sum.Ratings()

		color.New(color.Bold).Fprintf(out, "%s\n", v.Range.String())
		for _, key := range []string{"sleep", "readiness", "activity"} {
			r := ratings[key]
			fmt.Fprintf(out, "  %s %s %s\n",
				padRight(strings.ToUpper(key[:1])+key[1:], 12),
				colorFor(r.Color).Sprintf("%3.0f", r.Value),
				color.New(color.Faint).Sprint(r.Status))
		}
		temp := ratings["temperature"]
		fmt.Fprintf(out, "  %s %s\n", padRight("Temperature", 12), colorFor(temp.Color).Sprintf("%+.1f°C", temp.Value))

		h := ds.Highlights(v)

		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s %s\n", padRight("Efficiency", 12), h.AvgEfficiency)
		fmt.Fprintf(out, "  %s %s\n", padRight("Total sleep", 12), h.AvgDuration)
		fmt.Fprintf(out, "  %s %.0f\n", padRight("Resting HR", 12), sum.RestingHeartRate)
		fmt.Fprintf(out, "  %s %.0f\n", padRight("HRV balance", 12), sum.HRVScore)
		fmt.Fprintf(out, "  %s %.0f\n", padRight("Steps", 12), sum.Steps)
		fmt.Fprintf(out, "  %s %.0f\n", padRight("Calories", 12), sum.ActiveCalories)
		for _, st := range h.SleepStages {
			fmt.Fprintf(out, "  %s %.0f%%\n", padRight(strings.ToUpper(st.Stage[:1])+st.Stage[1:]+" sleep", 12), st.Percentage)
		}

		if h.Previous.Valid() {
			fmt.Fprintln(out)
			color.New(color.Faint).Fprintf(out, "  vs %s\n", h.Previous.String())
			for _, key := range []string{"sleep", "readiness", "activity", "steps"} {
				fmt.Fprintf(out, "  %s %s\n", padRight(strings.ToUpper(key[:1])+key[1:], 12), trendText(h.Trends[key]))
			}
		}

		if v.Stats.TotalDays == 0 {
			color.New(color.FgYellow).Fprintln(out, "No data in range.")
		}
		return nil
	},
}

var chartCmd = &cobra.Command{
	Use:       "chart <sleep|readiness|activity|temperature>",
	Short:     "Print daily chart points",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"sleep", "readiness", "activity", "temperature"},
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := chartRange.view()
		if err != nil {
			return err
		}
		points, err := pipeline.ChartPoints(v, pipeline.ChartKind(args[0]))
		if err != nil {
			return err
		}
		points = pipeline.LastN(points, chartLast)

		out := cmd.OutOrStdout()
		if len(points) == 0 {
			fmt.Fprintln(out, "No data in range.")
			return nil
		}
		faint := color.New(color.Faint)
		for _, p := range points {
			fmt.Fprintf(out, "%s %s %s\n", faint.Sprint(padRight(p.Date, 7)), bar(args[0], p.Value), p.Label)
		}
		if avg := pipeline.MovingAverage(pipeline.PointValues(points), pipeline.DefaultMovingWindow); len(avg) > 0 {
			faint.Fprintf(out, "%d-day average: %.0f\n", pipeline.DefaultMovingWindow, avg[len(avg)-1])
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record counts and data freshness",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, v, err := statsRange.scoped()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", v.Range.String())
		fmt.Fprintf(out, "  %s %d\n", padRight("Total days", 16), v.Stats.TotalDays)
		fmt.Fprintf(out, "  %s %d\n", padRight("Sleep", 16), v.Stats.SleepDays)
		fmt.Fprintf(out, "  %s %d\n", padRight("Readiness", 16), v.Stats.ReadinessDays)
		fmt.Fprintf(out, "  %s %d\n", padRight("Activity", 16), v.Stats.ActivityDays)
		fmt.Fprintf(out, "  %s %d\n", padRight("Rejected", 16), len(ds.Rejected))
		if v.LastUpdated != nil {
			fmt.Fprintf(out, "  %s %s\n", padRight("Last updated", 16), *v.LastUpdated)
		}
		if ds.DataRange.StartDate != "" {
			fmt.Fprintf(out, "  %s %s..%s\n", padRight("Fetched window", 16), ds.DataRange.StartDate, ds.DataRange.EndDate)
		}
		return nil
	},
}

// trendText renders a trend as an arrow and a percentage.
func trendText(tr models.Trend) string {
	switch tr.Direction {
	case models.TrendUp:
		return color.New(color.FgGreen).Sprintf("↑ %.0f%%", tr.Percentage)
	case models.TrendDown:
		return color.New(color.FgRed).Sprintf("↓ %.0f%%", tr.Percentage)
	default:
		return color.New(color.Faint).Sprint("→ steady")
	}
}

// colorFor maps a dashboard color class onto a terminal color.
func colorFor(class string) *color.Color {
	switch class {
	case models.ColorSuccess:
		return color.New(color.FgGreen)
	case models.ColorPrimary:
		return color.New(color.FgCyan)
	case models.ColorWarning:
		return color.New(color.FgYellow)
	case models.ColorError:
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}

// bar draws a 0-100 score as a row of blocks. Temperature gets a fixed-width cell.
func bar(kind string, value float64) string {
	if kind == string(pipeline.ChartTemperature) {
		return padRight("", 20)
	}
	n := int(value / 5)
	if n < 0 {
		n = 0
	}
	if n > 20 {
		n = 20
	}
	return colorFor(models.ScoreColor(value)).Sprint(strings.Repeat("█", n)) + strings.Repeat(" ", 20-n)
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	summaryRange.bind(summaryCmd)
	chartRange.bind(chartCmd)
	statsRange.bind(statsCmd)
	chartCmd.Flags().IntVarP(&chartLast, "last", "n", 14, "show only the most recent N points (0 for all)")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(statsCmd)
}
