// ABOUTME: DateRange model with presets and the swap-on-inversion policy.
// ABOUTME: Ranges are inclusive on both ends and compared at calendar-day granularity.
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateRange is an inclusive [Start, End] window with a display label.
type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
	Label string    `json:"label"`
}

// Valid reports whether both bounds are set.
func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Inverted reports whether Start is after End.
func (r DateRange) Inverted() bool {
	return r.Valid() && r.Start.After(r.End)
}

// Normalized returns the range with Start <= End, swapping when inverted.
func (r DateRange) Normalized() DateRange {
	if r.Inverted() {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

// Contains reports whether the calendar day of day lies within the range.
// The range must be valid and normalized.
func (r DateRange) Contains(day time.Time) bool {
	loc := r.Start.Location()
	start := truncateDay(r.Start, loc)
	end := truncateDay(r.End, loc)
	d := truncateDay(day, loc)
	return !d.Before(start) && !d.After(end)
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Previous is the window of the same number of days that ends the day
// before r starts. Unbounded ranges have no previous window.
func (r DateRange) Previous() DateRange {
	if !r.Valid() {
		return DateRange{}
	}
	r = r.Normalized()
	loc := r.Start.Location()
	start := truncateDay(r.Start, loc)
	days := int(truncateDay(r.End, loc).Sub(start).Hours()/24+0.5) + 1
	return DateRange{
		Start: start.AddDate(0, 0, -days),
		End:   start.AddDate(0, 0, -1),
		Label: fmt.Sprintf("Previous %d days", days),
	}
}

// String renders the range as "label (YYYY-MM-DD..YYYY-MM-DD)".
func (r DateRange) String() string {
	if !r.Valid() {
		return r.Label + " (unbounded)"
	}
	return fmt.Sprintf("%s (%s..%s)", r.Label, r.Start.Format(DayLayout), r.End.Format(DayLayout))
}

// CustomRange builds a labeled range from two dates, swapping if inverted.
func CustomRange(start, end time.Time) DateRange {
	r := DateRange{Start: start, End: end}.Normalized()
	r.Label = fmt.Sprintf("%s - %s", r.Start.Format("Jan 2"), r.End.Format("Jan 2"))
	return r
}

// Preset identifies one of the selector's canned ranges.
type Preset string

const (
	PresetLast7Days   Preset = "last-7-days"
	PresetLast2Weeks  Preset = "last-2-weeks"
	PresetLast30Days  Preset = "last-30-days"
	PresetThisWeek    Preset = "this-week"
	PresetThisMonth   Preset = "this-month"
	PresetLastMonth   Preset = "last-month"
	PresetLast3Months Preset = "last-3-months"
	PresetYearToDate  Preset = "year-to-date"
)

// DefaultPreset is the range used when the caller gives none.
const DefaultPreset = PresetLast30Days

var presetLabels = map[Preset]string{
	PresetLast7Days:   "Last 7 days",
	PresetLast2Weeks:  "Last 2 weeks",
	PresetLast30Days:  "Last 30 days",
	PresetThisWeek:    "This week",
	PresetThisMonth:   "This month",
	PresetLastMonth:   "Last month",
	PresetLast3Months: "Last 3 months",
	PresetYearToDate:  "Year to date",
}

// Presets returns the known preset names in a stable order.
func Presets() []Preset {
	out := make([]Preset, 0, len(presetLabels))
	for p := range presetLabels {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PresetNames joins the preset names for help text.
func PresetNames() string {
	names := make([]string, 0, len(presetLabels))
	for _, p := range Presets() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// PresetRange resolves a preset relative to now.
func PresetRange(p Preset, now time.Time) (DateRange, error) {
	label, ok := presetLabels[p]
	if !ok {
		return DateRange{}, fmt.Errorf("unknown range preset: %q", p)
	}

	var start time.Time
	switch p {
	case PresetLast7Days:
		start = now.AddDate(0, 0, -7)
	case PresetLast2Weeks:
		start = now.AddDate(0, 0, -14)
	case PresetLast30Days:
		start = now.AddDate(0, 0, -30)
	case PresetThisWeek:
		// Weeks start on Sunday.
		start = truncateDay(now, now.Location()).AddDate(0, 0, -int(now.Weekday()))
	case PresetThisMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case PresetLastMonth:
		start = now.AddDate(0, -1, 0)
	case PresetLast3Months:
		start = now.AddDate(0, -3, 0)
	case PresetYearToDate:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	}

	return DateRange{Start: start, End: now, Label: label}.Normalized(), nil
}

// ResolveRange picks a range from user input: explicit from/to dates win,
// otherwise the named preset (DefaultPreset when empty) is used.
func ResolveRange(preset, from, to string, now time.Time) (DateRange, error) {
	if from != "" || to != "" {
		if from == "" || to == "" {
			return DateRange{}, fmt.Errorf("both from and to dates are required")
		}
		start, err := time.ParseInLocation(DayLayout, from, now.Location())
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
		end, err := time.ParseInLocation(DayLayout, to, now.Location())
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
		return CustomRange(start, end), nil
	}
	if preset == "" {
		preset = string(DefaultPreset)
	}
	return PresetRange(Preset(preset), now)
}
