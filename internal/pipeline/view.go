// ABOUTME: Date-scoped view over a loaded Dataset for the presentation layer.
// ABOUTME: Recomputed on every call; nothing is cached between ranges.
package pipeline

import (
	"github.com/harperreed/oura/internal/models"
)

// View is what a consumer renders for one date range.
type View struct {
	Range       models.DateRange         `json:"dateRange"`
	Sleep       []models.SleepRecord     `json:"sleepData"`
	Readiness   []models.ReadinessRecord `json:"readinessData"`
	Activity    []models.ActivityRecord  `json:"activityData"`
	Stats       models.Stats             `json:"stats"`
	Error       *string                  `json:"error"`
	LastUpdated *string                  `json:"lastUpdated"`
}

// View filters the dataset to r. Inverted ranges are swapped first.
func (d *Dataset) View(r models.DateRange) View {
	r = r.Normalized()
	v := View{
		Range:     r,
		Sleep:     FilterByDateRange(d.Sleep, r),
		Readiness: FilterByDateRange(d.Readiness, r),
		Activity:  FilterByDateRange(d.Activity, r),
	}
	v.Stats = models.NewStats(len(v.Sleep), len(v.Readiness), len(v.Activity))
	if d.Err != nil {
		msg := d.Err.Error()
		v.Error = &msg
	}
	if d.LastUpdated != "" {
		lu := d.LastUpdated
		v.LastUpdated = &lu
	}
	return v
}

// Summary aggregates the view's collections.
func (v View) Summary() models.DashboardSummary {
	return CreateDashboardSummary(v.Sleep, v.Readiness, v.Activity)
}
