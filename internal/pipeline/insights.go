// ABOUTME: Secondary dashboard helpers: sleep stages, trends, moving averages, highlights.
// ABOUTME: Pure functions that never reorder or modify their inputs.
package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/harperreed/oura/internal/models"
)

// SleepStages approximates deep/REM/light shares from the contributor scores.
// Light sleep is whatever the deep and REM contributors leave of 100.
func SleepStages(records []models.SleepRecord) []models.SleepStage {
	if len(records) == 0 {
		return nil
	}
	deep := AverageOf(sleepContributor(records, func(c *models.SleepContributors) *float64 { return c.DeepSleep }))
	rem := AverageOf(sleepContributor(records, func(c *models.SleepContributors) *float64 { return c.REMSleep }))
	light := 100 - deep - rem
	total := deep + rem + light

	pct := func(v float64) float64 {
		if total == 0 {
			return 0
		}
		return roundHalfUp(v / total * 100)
	}
	return []models.SleepStage{
		{Stage: "deep", Duration: deep, Percentage: pct(deep)},
		{Stage: "rem", Duration: rem, Percentage: pct(rem)},
		{Stage: "light", Duration: light, Percentage: pct(light)},
	}
}

// FormatDuration renders whole minutes as "7h 5m".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatPercentage renders a rounded percentage ("87%").
func FormatPercentage(v float64) string {
	return fmt.Sprintf("%.0f%%", roundHalfUp(v))
}

// CalculateTrend compares current against previous. Changes under 1% are neutral.
func CalculateTrend(current, previous float64) models.Trend {
	if previous == 0 {
		return models.Trend{Direction: models.TrendNeutral}
	}
	change := (current - previous) / previous * 100
	if math.Abs(change) < 1 {
		return models.Trend{Direction: models.TrendNeutral}
	}
	dir := models.TrendDown
	if change > 0 {
		dir = models.TrendUp
	}
	return models.Trend{Direction: dir, Percentage: math.Abs(roundHalfUp(change))}
}

// LatestRecord returns the record with the most recent valid day.
func LatestRecord[T models.DailyRecord](records []T) (T, bool) {
	var latest T
	var latestDay time.Time
	found := false
	for _, r := range records {
		day, ok := models.ParseDay(r.RecordDay(), time.UTC)
		if !ok {
			continue
		}
		if !found || day.After(latestDay) {
			latest, latestDay, found = r, day, true
		}
	}
	return latest, found
}

// DefaultMovingWindow is the moving average window in days.
const DefaultMovingWindow = 7

// MovingAverage returns the rounded mean of every full window of size
// window (DefaultMovingWindow when window <= 0). Non-finite values are skipped inside a
// window. Shorter inputs yield no values.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 {
		window = DefaultMovingWindow
	}
	if len(values) < window {
		return []float64{}
	}
	out := make([]float64, 0, len(values)-window+1)
	for i := window; i <= len(values); i++ {
		out = append(out, AverageScore(values[i-window:i]))
	}
	return out
}

// PointValues lists the values of chart points in order.
func PointValues(points []models.ChartDataPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// Highlights are the secondary figures shown beside a summary.
type Highlights struct {
	SleepStages   []models.SleepStage     `json:"sleepStages"`
	AvgDuration   string                  `json:"avgDuration"`
	AvgEfficiency string                  `json:"avgEfficiency"`
	Previous      models.DateRange        `json:"previousRange"`
	Trends        map[string]models.Trend `json:"trends"`
}

// Highlights compares v against the window of the same length before it.
// Trends are empty when v is unbounded.
func (d *Dataset) Highlights(v View) Highlights {
	sum := v.Summary()
	h := Highlights{
		SleepStages:   SleepStages(v.Sleep),
		AvgDuration:   FormatDuration(int(sum.SleepDuration)),
		AvgEfficiency: FormatPercentage(sum.SleepEfficiency),
		Trends:        map[string]models.Trend{},
	}
	if h.SleepStages == nil {
		h.SleepStages = []models.SleepStage{}
	}
	if !v.Range.Valid() {
		return h
	}

	h.Previous = v.Range.Previous()
	prev := d.View(h.Previous).Summary()
	h.Trends["sleep"] = CalculateTrend(sum.SleepScore, prev.SleepScore)
	h.Trends["readiness"] = CalculateTrend(sum.ReadinessScore, prev.ReadinessScore)
	h.Trends["activity"] = CalculateTrend(sum.ActivityScore, prev.ActivityScore)
	h.Trends["steps"] = CalculateTrend(sum.Steps, prev.Steps)
	return h
}
