// ABOUTME: Derived view models: dashboard summary, chart points, stats, and trends.
// ABOUTME: Also holds the score classification thresholds used by every consumer.
package models

// DashboardSummary aggregates the three collections over a date range.
// The zero value is the all-zero default shown when nothing can be computed.
type DashboardSummary struct {
	SleepScore       float64 `json:"sleepScore" yaml:"sleep_score"`
	ReadinessScore   float64 `json:"readinessScore" yaml:"readiness_score"`
	ActivityScore    float64 `json:"activityScore" yaml:"activity_score"`
	SleepDuration    float64 `json:"sleepDuration" yaml:"sleep_duration"`
	SleepEfficiency  float64 `json:"sleepEfficiency" yaml:"sleep_efficiency"`
	RestingHeartRate float64 `json:"restingHeartRate" yaml:"resting_heart_rate"`
	HRVScore         float64 `json:"hrvScore" yaml:"hrv_score"`
	BodyTemperature  float64 `json:"bodyTemperature" yaml:"body_temperature"`
	Steps            float64 `json:"steps" yaml:"steps"`
	ActiveCalories   float64 `json:"activeCalories" yaml:"active_calories"`
}

// ChartDataPoint is one plotted value with its display label.
type ChartDataPoint struct {
	Date  string  `json:"date" yaml:"date"`
	Value float64 `json:"value" yaml:"value"`
	Label string  `json:"label,omitempty" yaml:"label,omitempty"`
}

// Stats counts the records in each filtered collection.
type Stats struct {
	TotalDays     int `json:"totalDays" yaml:"total_days"`
	SleepDays     int `json:"sleepDays" yaml:"sleep_days"`
	ReadinessDays int `json:"readinessDays" yaml:"readiness_days"`
	ActivityDays  int `json:"activityDays" yaml:"activity_days"`
}

// NewStats builds Stats from collection sizes. TotalDays is the largest count.
func NewStats(sleep, readiness, activity int) Stats {
	return Stats{
		TotalDays:     max(sleep, readiness, activity),
		SleepDays:     sleep,
		ReadinessDays: readiness,
		ActivityDays:  activity,
	}
}

// SleepStage is an approximate share of one sleep stage.
type SleepStage struct {
	Stage      string  `json:"stage"`
	Duration   float64 `json:"duration"`
	Percentage float64 `json:"percentage"`
}

// TrendDirection is the direction of change between two periods.
type TrendDirection string

const (
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendNeutral TrendDirection = "neutral"
)

// Trend describes a relative change in percent.
type Trend struct {
	Direction  TrendDirection `json:"direction"`
	Percentage float64        `json:"percentage"`
}

// Score colors and statuses, highest bucket first.
const (
	ColorSuccess = "success"
	ColorPrimary = "primary"
	ColorWarning = "warning"
	ColorError   = "error"

	StatusExcellent = "Excellent"
	StatusGood      = "Good"
	StatusFair      = "Fair"
	StatusPoor      = "Poor"
)

// ScoreColor maps a 0-100 score onto the four-bucket severity scale.
func ScoreColor(score float64) string {
	switch {
	case score >= 85:
		return ColorSuccess
	case score >= 70:
		return ColorPrimary
	case score >= 50:
		return ColorWarning
	default:
		return ColorError
	}
}

// ScoreStatus is the text that pairs with ScoreColor.
func ScoreStatus(score float64) string {
	switch {
	case score >= 85:
		return StatusExcellent
	case score >= 70:
		return StatusGood
	case score >= 50:
		return StatusFair
	default:
		return StatusPoor
	}
}

// TemperatureColor grades a body temperature deviation in degrees Celsius.
func TemperatureColor(deviation float64) string {
	if deviation < 0 {
		deviation = -deviation
	}
	switch {
	case deviation <= 0.5:
		return ColorSuccess
	case deviation <= 1.0:
		return ColorWarning
	default:
		return ColorError
	}
}

// Rating pairs a headline figure with its display classification.
type Rating struct {
	Value  float64 `json:"value"`
	Color  string  `json:"color"`
	Status string  `json:"status,omitempty"`
}

// Ratings classifies the headline figures of a summary, keyed
// sleep, readiness, activity, and temperature.
func (s DashboardSummary) Ratings() map[string]Rating {
	score := func(v float64) Rating {
		return Rating{Value: v, Color: ScoreColor(v), Status: ScoreStatus(v)}
	}
	return map[string]Rating{
		"sleep":       score(s.SleepScore),
		"readiness":   score(s.ReadinessScore),
		"activity":    score(s.ActivityScore),
		"temperature": {Value: s.BodyTemperature, Color: TemperatureColor(s.BodyTemperature)},
	}
}
