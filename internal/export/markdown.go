// ABOUTME: Markdown rendering of an export document.
// ABOUTME: A summary table with ratings followed by one row per day.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/oura/internal/models"
)

// Markdown renders doc as a Markdown report.
func Markdown(doc *Document) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Oura Export - %s\n\n", doc.ExportedAt.Format(models.DayLayout)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", doc.ExportedAt.Format(time.RFC3339)))
	if doc.Range.Start != "" {
		sb.WriteString(fmt.Sprintf("Range: %s (%s to %s)\n\n", doc.Range.Label, doc.Range.Start, doc.Range.End))
	}

	s := doc.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value | Status |\n")
	sb.WriteString("|--------|-------|--------|\n")
	scoreRow := func(name string, v float64) {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", name, num(v), models.ScoreStatus(v)))
	}
	scoreRow("Sleep Score", s.SleepScore)
	scoreRow("Readiness Score", s.ReadinessScore)
	scoreRow("Activity Score", s.ActivityScore)
	sb.WriteString(fmt.Sprintf("| Sleep Efficiency | %s | |\n", num(s.SleepEfficiency)))
	sb.WriteString(fmt.Sprintf("| Resting Heart Rate | %s | |\n", num(s.RestingHeartRate)))
	sb.WriteString(fmt.Sprintf("| HRV Balance | %s | |\n", num(s.HRVScore)))
	sb.WriteString(fmt.Sprintf("| Temperature Deviation | %+.1f°C | %s |\n", s.BodyTemperature, models.TemperatureColor(s.BodyTemperature)))
	sb.WriteString(fmt.Sprintf("| Steps | %s | |\n", num(s.Steps)))
	sb.WriteString(fmt.Sprintf("| Active Calories | %s | |\n", num(s.ActiveCalories)))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Days: %d sleep, %d readiness, %d activity\n\n",
		doc.Stats.SleepDays, doc.Stats.ReadinessDays, doc.Stats.ActivityDays))

	if len(doc.Days) == 0 {
		sb.WriteString("No data in range.\n")
		return sb.String()
	}

	sb.WriteString("## Daily\n\n")
	sb.WriteString("| Date | Sleep | Readiness | Activity | Steps | Temp |\n")
	sb.WriteString("|------|-------|-----------|----------|-------|------|\n")
	for _, d := range doc.Days {
		temp := ""
		if d.TemperatureDeviation != nil {
			temp = fmt.Sprintf("%+.1f", *d.TemperatureDeviation)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			d.Day, opt(d.SleepScore), opt(d.ReadinessScore), opt(d.ActivityScore), opt(d.Steps), temp))
	}
	return sb.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func opt(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}
