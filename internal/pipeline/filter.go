// ABOUTME: Date-range filtering for daily record collections.
// ABOUTME: Inverted ranges are swapped; ranges missing a bound pass records through.
package pipeline

import (
	"github.com/harperreed/oura/internal/models"
)

// FilterByDateRange returns the records whose day falls within r, inclusive.
// Records with a missing or unparseable day are dropped. The input slice is
// never modified and the result is always a fresh, non-nil slice.
func FilterByDateRange[T models.DailyRecord](records []T, r models.DateRange) []T {
	if !r.Valid() {
		return append(make([]T, 0, len(records)), records...)
	}
	r = r.Normalized()
	loc := r.Start.Location()

	out := make([]T, 0, len(records))
	for _, rec := range records {
		day, ok := models.ParseDay(rec.RecordDay(), loc)
		if !ok {
			continue
		}
		if r.Contains(day) {
			out = append(out, rec)
		}
	}
	return out
}
