// ABOUTME: Projects daily records into chart-ready points.
// ABOUTME: Invalid records are skipped and source order is kept.
package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/harperreed/oura/internal/models"
)

// ChartLabelLayout formats the x-axis label of a point ("Jan 2").
const ChartLabelLayout = "Jan 2"

// ChartKind selects which projection to run.
type ChartKind string

const (
	ChartSleep       ChartKind = "sleep"
	ChartReadiness   ChartKind = "readiness"
	ChartActivity    ChartKind = "activity"
	ChartTemperature ChartKind = "temperature"
)

// ChartKinds lists every supported kind.
var ChartKinds = []ChartKind{ChartSleep, ChartReadiness, ChartActivity, ChartTemperature}

// SleepChartPoints plots sleep scores.
func SleepChartPoints(records []models.SleepRecord) []models.ChartDataPoint {
	return scorePoints(records, "Sleep Score")
}

// ReadinessChartPoints plots readiness scores.
func ReadinessChartPoints(records []models.ReadinessRecord) []models.ChartDataPoint {
	return scorePoints(records, "Readiness Score")
}

// ActivityChartPoints plots activity scores.
func ActivityChartPoints(records []models.ActivityRecord) []models.ChartDataPoint {
	return scorePoints(records, "Activity Score")
}

// TemperatureChartPoints plots the nightly temperature deviation.
func TemperatureChartPoints(records []models.ReadinessRecord) []models.ChartDataPoint {
	out := make([]models.ChartDataPoint, 0, len(records))
	for _, r := range records {
		day, ok := models.ParseDay(r.Day, time.UTC)
		if !ok || r.TemperatureDeviation == nil || !finite(*r.TemperatureDeviation) {
			continue
		}
		v := *r.TemperatureDeviation
		out = append(out, models.ChartDataPoint{
			Date:  day.Format(ChartLabelLayout),
			Value: v,
			Label: fmt.Sprintf("Temperature Deviation: %.1f°C", v),
		})
	}
	return out
}

func scorePoints[T models.DailyRecord](records []T, title string) []models.ChartDataPoint {
	out := make([]models.ChartDataPoint, 0, len(records))
	for _, r := range records {
		day, ok := models.ParseDay(r.RecordDay(), time.UTC)
		if !ok {
			continue
		}
		score := r.RecordScore()
		if score == nil || !finite(*score) {
			continue
		}
		out = append(out, models.ChartDataPoint{
			Date:  day.Format(ChartLabelLayout),
			Value: *score,
			Label: fmt.Sprintf("%s: %s", title, strconv.FormatFloat(*score, 'f', -1, 64)),
		})
	}
	return out
}

// ChartPoints runs the projection for kind over the view's collections.
func ChartPoints(v View, kind ChartKind) ([]models.ChartDataPoint, error) {
	switch kind {
	case ChartSleep:
		return SleepChartPoints(v.Sleep), nil
	case ChartReadiness:
		return ReadinessChartPoints(v.Readiness), nil
	case ChartActivity:
		return ActivityChartPoints(v.Activity), nil
	case ChartTemperature:
		return TemperatureChartPoints(v.Readiness), nil
	default:
		return nil, fmt.Errorf("unknown chart kind: %q", kind)
	}
}

// LastN keeps the trailing n points. n <= 0 keeps everything.
func LastN(points []models.ChartDataPoint, n int) []models.ChartDataPoint {
	if n <= 0 || len(points) <= n {
		return points
	}
	return points[len(points)-n:]
}
