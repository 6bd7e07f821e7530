package recurring

import (
	"time"

	"tally/internal/models"
)

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLastDayOfMonth(t time.Time) bool {
	return t.Day() == daysInMonth(t.Year(), t.Month())
}

// AddMonths moves d forward by n calendar months without overflowing into
// the following month. A day that does not exist in the target month is
// clamped to its last day, and a date on the last day of its month stays on
// the last day, so 2025-01-31 -> 2025-02-28 -> 2025-03-31.
func AddMonths(d time.Time, n int) time.Time {
	d = models.DateOnly(d)
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := daysInMonth(first.Year(), first.Month())

	day := d.Day()
	if isLastDayOfMonth(d) || day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// NextDate predicts the next charge after last for the given cadence.
// Custom cadences advance by customDays.
func NextDate(last time.Time, f Frequency, customDays int) time.Time {
	last = models.DateOnly(last)
	switch f {
	case FrequencyWeekly:
		return last.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return last.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return AddMonths(last, 1)
	case FrequencyQuarterly:
		return AddMonths(last, 3)
	case FrequencyYearly:
		return AddMonths(last, 12)
	default:
		if customDays < 1 {
			customDays = 1
		}
		return last.AddDate(0, 0, customDays)
	}
}
