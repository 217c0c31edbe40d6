// ABOUTME: Daily record models for Oura sleep, readiness, and activity collections.
// ABOUTME: Numeric fields are nullable because the API omits or nulls them freely.
package models

import (
	"strings"
	"time"
)

// DayLayout is the calendar-day format used by the Oura API.
const DayLayout = "2006-01-02"

// Collection names a record collection in the combined bundle.
type Collection string

const (
	CollectionSleep      Collection = "sleep"
	CollectionReadiness  Collection = "readiness"
	CollectionActivity   Collection = "activity"
	CollectionHeartRate  Collection = "heartRate"
	CollectionDailySleep Collection = "dailySleep"
)

// DailyRecord is the shape shared by every day-keyed scored record.
type DailyRecord interface {
	RecordDay() string
	RecordScore() *float64
}

// SleepContributors are the 0-100 sub-scores behind a sleep score.
type SleepContributors struct {
	DeepSleep   *float64 `json:"deep_sleep"`
	Efficiency  *float64 `json:"efficiency"`
	Latency     *float64 `json:"latency"`
	REMSleep    *float64 `json:"rem_sleep"`
	Restfulness *float64 `json:"restfulness"`
	Timing      *float64 `json:"timing"`
	TotalSleep  *float64 `json:"total_sleep"`
}

// SleepRecord is one day of sleep scoring.
type SleepRecord struct {
	ID           string             `json:"id"`
	Day          string             `json:"day"`
	Score        *float64           `json:"score"`
	Timestamp    string             `json:"timestamp,omitempty"`
	Contributors *SleepContributors `json:"contributors,omitempty"`
}

func (r SleepRecord) RecordDay() string     { return r.Day }
func (r SleepRecord) RecordScore() *float64 { return r.Score }

// ReadinessContributors are the 0-100 sub-scores behind a readiness score.
type ReadinessContributors struct {
	ActivityBalance       *float64 `json:"activity_balance"`
	BodyTemperature       *float64 `json:"body_temperature"`
	HRVBalance            *float64 `json:"hrv_balance"`
	PreviousDayActivity   *float64 `json:"previous_day_activity"`
	PreviousNightRecovery *float64 `json:"previous_night_recovery"`
	RecoveryIndex         *float64 `json:"recovery_index"`
	RestingHeartRate      *float64 `json:"resting_heart_rate"`
	SleepBalance          *float64 `json:"sleep_balance"`
}

// ReadinessRecord is one day of readiness scoring.
type ReadinessRecord struct {
	ID                        string                 `json:"id"`
	Day                       string                 `json:"day"`
	Score                     *float64               `json:"score"`
	TemperatureDeviation      *float64               `json:"temperature_deviation"`
	TemperatureTrendDeviation *float64               `json:"temperature_trend_deviation"`
	Timestamp                 string                 `json:"timestamp,omitempty"`
	Contributors              *ReadinessContributors `json:"contributors,omitempty"`
}

func (r ReadinessRecord) RecordDay() string     { return r.Day }
func (r ReadinessRecord) RecordScore() *float64 { return r.Score }

// ActivityContributors are the 0-100 sub-scores behind an activity score.
type ActivityContributors struct {
	MeetDailyTargets  *float64 `json:"meet_daily_targets"`
	MoveEveryHour     *float64 `json:"move_every_hour"`
	RecoveryTime      *float64 `json:"recovery_time"`
	StayActive        *float64 `json:"stay_active"`
	TrainingFrequency *float64 `json:"training_frequency"`
	TrainingVolume    *float64 `json:"training_volume"`
}

// ActivityRecord is one day of activity. Times are in seconds, distance in meters.
type ActivityRecord struct {
	ID                        string                `json:"id"`
	Day                       string                `json:"day"`
	Score                     *float64              `json:"score"`
	ActiveCalories            *float64              `json:"active_calories"`
	TotalCalories             *float64              `json:"total_calories"`
	TargetCalories            *float64              `json:"target_calories"`
	Steps                     *float64              `json:"steps"`
	EquivalentWalkingDistance *float64              `json:"equivalent_walking_distance"`
	HighActivityTime          *float64              `json:"high_activity_time"`
	MediumActivityTime        *float64              `json:"medium_activity_time"`
	LowActivityTime           *float64              `json:"low_activity_time"`
	SedentaryTime             *float64              `json:"sedentary_time"`
	RestingTime               *float64              `json:"resting_time"`
	NonWearTime               *float64              `json:"non_wear_time"`
	InactivityAlerts          *float64              `json:"inactivity_alerts"`
	Timestamp                 string                `json:"timestamp,omitempty"`
	Contributors              *ActivityContributors `json:"contributors,omitempty"`
}

func (r ActivityRecord) RecordDay() string     { return r.Day }
func (r ActivityRecord) RecordScore() *float64 { return r.Score }

// ParseDay parses a record day. Full timestamps are accepted and truncated
// to their calendar date. The result is midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(DayLayout, s, loc); err == nil {
		return t, true
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// Float returns a pointer to v. Handy for building records in code and tests.
func Float(v float64) *float64 {
	return &v
}
