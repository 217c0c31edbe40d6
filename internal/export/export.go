// ABOUTME: Export of a date-scoped view as JSON, YAML, Markdown, or Parquet.
// ABOUTME: Every format is built from the same joined per-day rows.
package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/oura/internal/models"
	"github.com/harperreed/oura/internal/pipeline"
)

// Format is an export output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatParquet  Format = "parquet"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatMarkdown, FormatParquet}

// Version is the export document version.
const Version = "1.0"

// ParseFormat accepts a format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unknown format: %s (use json, yaml, markdown, or parquet)", s)
	}
}

// Extension returns the usual file extension for f.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatMarkdown:
		return ".md"
	case FormatParquet:
		return ".parquet"
	default:
		return ".json"
	}
}

// DayRow joins the three collections for one calendar day.
type DayRow struct {
	Day                  string   `json:"day" yaml:"day"`
	SleepScore           *float64 `json:"sleepScore,omitempty" yaml:"sleep_score,omitempty"`
	SleepEfficiency      *float64 `json:"sleepEfficiency,omitempty" yaml:"sleep_efficiency,omitempty"`
	TotalSleep           *float64 `json:"totalSleep,omitempty" yaml:"total_sleep,omitempty"`
	ReadinessScore       *float64 `json:"readinessScore,omitempty" yaml:"readiness_score,omitempty"`
	RestingHeartRate     *float64 `json:"restingHeartRate,omitempty" yaml:"resting_heart_rate,omitempty"`
	HRVBalance           *float64 `json:"hrvBalance,omitempty" yaml:"hrv_balance,omitempty"`
	TemperatureDeviation *float64 `json:"temperatureDeviation,omitempty" yaml:"temperature_deviation,omitempty"`
	ActivityScore        *float64 `json:"activityScore,omitempty" yaml:"activity_score,omitempty"`
	Steps                *float64 `json:"steps,omitempty" yaml:"steps,omitempty"`
	ActiveCalories       *float64 `json:"activeCalories,omitempty" yaml:"active_calories,omitempty"`
}

// Document is the JSON and YAML export shape.
type Document struct {
	Version    string                  `json:"version" yaml:"version"`
	ExportedAt time.Time               `json:"exported_at" yaml:"exported_at"`
	Tool       string                  `json:"tool" yaml:"tool"`
	Range      Range                   `json:"range" yaml:"range"`
	Summary    models.DashboardSummary `json:"summary" yaml:"summary"`
	Stats      models.Stats            `json:"stats" yaml:"stats"`
	Days       []DayRow                `json:"days" yaml:"days"`
}

// Range is the date range in plain day strings.
type Range struct {
	Label string `json:"label" yaml:"label"`
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// NewDocument builds the export document for a view.
func NewDocument(v pipeline.View, now time.Time) *Document {
	r := Range{Label: v.Range.Label}
	if v.Range.Valid() {
		r.Start = v.Range.Start.Format(models.DayLayout)
		r.End = v.Range.End.Format(models.DayLayout)
	}
	return &Document{
		Version:    Version,
		ExportedAt: now,
		Tool:       "oura",
		Range:      r,
		Summary:    v.Summary(),
		Stats:      v.Stats,
		Days:       Rows(v),
	}
}

// Rows joins the view's collections by day, oldest first. When a
// collection has several records for one day the last one wins.
func Rows(v pipeline.View) []DayRow {
	byDay := make(map[string]*DayRow)
	row := func(raw string) *DayRow {
		d, ok := models.ParseDay(raw, time.UTC)
		if !ok {
			return nil
		}
		key := d.Format(models.DayLayout)
		r, ok := byDay[key]
		if !ok {
			r = &DayRow{Day: key}
			byDay[key] = r
		}
		return r
	}

	for _, s := range v.Sleep {
		if r := row(s.Day); r != nil {
			r.SleepScore = s.Score
			if s.Contributors != nil {
				r.SleepEfficiency = s.Contributors.Efficiency
				r.TotalSleep = s.Contributors.TotalSleep
			}
		}
	}
	for _, rd := range v.Readiness {
		if r := row(rd.Day); r != nil {
			r.ReadinessScore = rd.Score
			r.TemperatureDeviation = rd.TemperatureDeviation
			if rd.Contributors != nil {
				r.RestingHeartRate = rd.Contributors.RestingHeartRate
				r.HRVBalance = rd.Contributors.HRVBalance
			}
		}
	}
	for _, a := range v.Activity {
		if r := row(a.Day); r != nil {
			r.ActivityScore = a.Score
			r.Steps = a.Steps
			r.ActiveCalories = a.ActiveCalories
		}
	}

	rows := make([]DayRow, 0, len(byDay))
	for _, r := range byDay {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day < rows[j].Day })
	return rows
}

// Export renders v in the given format.
func Export(v pipeline.View, format Format, now time.Time) ([]byte, error) {
	doc := NewDocument(v, now)
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatMarkdown:
		return []byte(Markdown(doc)), nil
	case FormatParquet:
		return Parquet(doc.Days)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
