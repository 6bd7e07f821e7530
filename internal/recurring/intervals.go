package recurring

import (
	"math"
	"time"

	"tally/internal/models"
)

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(models.DateOnly(b).Sub(models.DateOnly(a)).Hours() / 24))
}

// Intervals returns the day gaps between consecutive dates. dates must be
// sorted ascending. Fewer than two dates yield nil.
func Intervals(dates []time.Time) []int {
	if len(dates) < 2 {
		return nil
	}
	gaps := make([]int, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		gaps = append(gaps, DaysBetween(dates[i-1], dates[i]))
	}
	return gaps
}
