package recurring

import (
	"fmt"
	"math"
)

// Frequency is the cadence bucket of a recurring pattern.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyCustom    Frequency = "custom"
)

// DefaultIntervalToleranceDays is how far the median gap may sit from a
// bucket before the bucket is rejected.
const DefaultIntervalToleranceDays = 7

// bucket describes the day range a cadence naturally spans. Months run
// 28 to 31 days and quarters 89 to 92, so those buckets are ranges rather
// than single centres.
type bucket struct {
	frequency Frequency
	minDays   int
	maxDays   int
	expected  float64
}

// averageMonthDays is the mean Gregorian month length.
const averageMonthDays = 30.44

var buckets = []bucket{
	{FrequencyWeekly, 7, 7, 7},
	{FrequencyBiweekly, 14, 14, 14},
	{FrequencyMonthly, 28, 31, averageMonthDays},
	{FrequencyQuarterly, 89, 92, 91.31},
	{FrequencyYearly, 365, 366, 365.25},
}

// distance is how many days days lies outside the bucket's range.
func (b bucket) distance(days float64) float64 {
	switch {
	case days < float64(b.minDays):
		return float64(b.minDays) - days
	case days > float64(b.maxDays):
		return days - float64(b.maxDays)
	default:
		return 0
	}
}

func bucketFor(f Frequency) (bucket, bool) {
	for _, b := range buckets {
		if b.frequency == f {
			return b, true
		}
	}
	return bucket{}, false
}

// ExpectedDays returns the nominal cycle length of a cadence. Custom
// cadences have no nominal length and return 0.
func (f Frequency) ExpectedDays() float64 {
	b, ok := bucketFor(f)
	if !ok {
		return 0
	}
	return b.expected
}

// MonthlyFactor converts one charge at this cadence into its monthly
// equivalent.
func (f Frequency) MonthlyFactor() float64 {
	switch f {
	case FrequencyWeekly:
		return 52.0 / 12.0
	case FrequencyBiweekly:
		return 26.0 / 12.0
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 1.0 / 3.0
	case FrequencyYearly:
		return 1.0 / 12.0
	default:
		return 0
	}
}

// Valid reports whether f is a known cadence.
func (f Frequency) Valid() bool {
	if f == FrequencyCustom {
		return true
	}
	_, ok := bucketFor(f)
	return ok
}

// Classification is the result of classifying a set of intervals.
type Classification struct {
	Frequency     Frequency
	MedianDays    int
	MatchedReason string
}

// Classify buckets the median interval into a cadence. A bucket matches
// when the median lies within toleranceDays of it; overlapping matches go
// to the nearest bucket, then the shorter one. When nothing matches the
// cadence is custom. ok is false only for empty input.
func Classify(intervals []int, toleranceDays int) (Classification, bool) {
	if len(intervals) == 0 {
		return Classification{}, false
	}
	if toleranceDays < 0 {
		toleranceDays = DefaultIntervalToleranceDays
	}

	median := lowerMedian(intervals)
	if median < 1 {
		return Classification{
			Frequency:     FrequencyCustom,
			MedianDays:    median,
			MatchedReason: "charges repeat on the same day",
		}, true
	}

	best := -1
	bestDistance := math.Inf(1)
	for i, b := range buckets {
		d := b.distance(float64(median))
		if d <= float64(toleranceDays) && d < bestDistance {
			best, bestDistance = i, d
		}
	}

	if best < 0 {
		return Classification{
			Frequency:     FrequencyCustom,
			MedianDays:    median,
			MatchedReason: fmt.Sprintf("median interval of %d days matches no cadence", median),
		}, true
	}

	b := buckets[best]
	return Classification{
		Frequency:     b.frequency,
		MedianDays:    median,
		MatchedReason: fmt.Sprintf("median interval of %d days is within %d days of %s", median, toleranceDays, b.frequency),
	}, true
}
