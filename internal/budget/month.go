package budget

import (
	"fmt"
	"time"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

const monthLayout = "2006-01"

// MonthBounds returns the first and last day (inclusive, UTC midnight) of a
// "YYYY-MM" month.
func MonthBounds(month string) (time.Time, time.Time, error) {
	start, err := time.Parse(monthLayout, month)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Wrap(apperrors.ErrInvalidMonth, err)
	}
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return start, end, nil
}

// MonthOf formats the month containing t.
func MonthOf(t time.Time) string {
	return t.UTC().Format(monthLayout)
}

// FormatMonth formats a year and month as "YYYY-MM".
func FormatMonth(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

func within(t, start, end time.Time) bool {
	d := models.DateOnly(t)
	return !d.Before(start) && !d.After(end)
}
