// ABOUTME: Averages and the dashboard summary over filtered collections.
// ABOUTME: Each figure is computed on its own so one missing field never blocks the rest.
package pipeline

import (
	"math"

	"github.com/harperreed/oura/internal/models"
)

// roundHalfUp rounds to the nearest integer, halves toward +Inf.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// roundTenths rounds to one decimal place, halves toward +Inf.
func roundTenths(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// mean returns the plain mean of the finite values and how many were used.
func mean(values []float64) (float64, int) {
	var sum float64
	n := 0
	for _, v := range values {
		if !finite(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// AverageScore returns the rounded mean of the finite values, or 0 when
// there are none.
func AverageScore(values []float64) float64 {
	m, n := mean(values)
	if n == 0 {
		return 0
	}
	return roundHalfUp(m)
}

// AverageOf is AverageScore over nullable values; nils are skipped.
func AverageOf(values []*float64) float64 {
	return AverageScore(deref(values))
}

func deref(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Scores collects the score of every record, nil when absent.
func Scores[T models.DailyRecord](records []T) []*float64 {
	out := make([]*float64, 0, len(records))
	for _, r := range records {
		out = append(out, r.RecordScore())
	}
	return out
}

// CreateDashboardSummary aggregates the three collections. If anything
// unexpected goes wrong the all-zero summary is returned instead.
func CreateDashboardSummary(
	sleep []models.SleepRecord,
	readiness []models.ReadinessRecord,
	activity []models.ActivityRecord,
) (summary models.DashboardSummary) {
	defer func() {
		if recover() != nil {
			summary = models.DashboardSummary{}
		}
	}()

	summary.SleepScore = AverageOf(Scores(sleep))
	summary.ReadinessScore = AverageOf(Scores(readiness))
	summary.ActivityScore = AverageOf(Scores(activity))

	summary.SleepEfficiency = AverageOf(sleepContributor(sleep, func(c *models.SleepContributors) *float64 { return c.Efficiency }))
	summary.SleepDuration = AverageOf(sleepContributor(sleep, func(c *models.SleepContributors) *float64 { return c.TotalSleep }))

	summary.RestingHeartRate = AverageOf(readinessContributor(readiness, func(c *models.ReadinessContributors) *float64 { return c.RestingHeartRate }))
	summary.HRVScore = AverageOf(readinessContributor(readiness, func(c *models.ReadinessContributors) *float64 { return c.HRVBalance }))
	summary.BodyTemperature = averageTemperature(readiness)

	summary.Steps, summary.ActiveCalories = averageSteps(activity)

	return summary
}

func sleepContributor(records []models.SleepRecord, field func(*models.SleepContributors) *float64) []*float64 {
	out := make([]*float64, 0, len(records))
	for _, r := range records {
		if r.Contributors != nil {
			out = append(out, field(r.Contributors))
		}
	}
	return out
}

func readinessContributor(records []models.ReadinessRecord, field func(*models.ReadinessContributors) *float64) []*float64 {
	out := make([]*float64, 0, len(records))
	for _, r := range records {
		if r.Contributors != nil {
			out = append(out, field(r.Contributors))
		}
	}
	return out
}

// averageTemperature is the mean deviation rounded to a tenth of a degree.
func averageTemperature(records []models.ReadinessRecord) float64 {
	values := make([]*float64, 0, len(records))
	for _, r := range records {
		values = append(values, r.TemperatureDeviation)
	}
	m, n := mean(deref(values))
	if n == 0 {
		return 0
	}
	return roundTenths(m)
}

// averageSteps only uses days that carry both steps and active calories.
func averageSteps(records []models.ActivityRecord) (float64, float64) {
	var steps, calories []float64
	for _, r := range records {
		if r.Steps == nil || r.ActiveCalories == nil {
			continue
		}
		if !finite(*r.Steps) || !finite(*r.ActiveCalories) {
			continue
		}
		steps = append(steps, *r.Steps)
		calories = append(calories, *r.ActiveCalories)
	}
	return AverageScore(steps), AverageScore(calories)
}
