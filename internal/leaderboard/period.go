package leaderboard

import (
	"time"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

// allTimeEnd is the sentinel period end for all-time competitions, so the
// (start, end) tuple stays stable across syncs.
var allTimeEnd = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// CurrentWindow returns the scoring window containing now for the given
// period granularity. Start is inclusive, end exclusive; both are derived
// from calendar boundaries in now's location so every sync lands in the
// same tuple.
func CurrentWindow(periodType string, now time.Time) (time.Time, time.Time) {
	year, month, day := now.Date()
	loc := now.Location()

	switch periodType {
	case models.PeriodDaily:
		start := time.Date(year, month, day, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 1)

	case models.PeriodWeekly:
		// Weeks start on Monday.
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := time.Date(year, month, day, 0, 0, 0, 0, loc).AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 7)

	case models.PeriodMonthly:
		start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)

	case models.PeriodQuarterly:
		quarterMonth := time.Month(((int(month)-1)/3)*3 + 1)
		start := time.Date(year, quarterMonth, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 3, 0)

	case models.PeriodYearly:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0)

	default: // ALL_TIME and anything unrecognized
		return time.Time{}, allTimeEnd
	}
}
