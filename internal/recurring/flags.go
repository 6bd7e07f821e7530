package recurring

import (
	"math"
	"sort"

	"tally/internal/models"
)

// Flag is a symbolic anomaly annotation on a pattern.
type Flag string

const (
	// FlagPriceChange marks a pattern whose amount stepped up or down while
	// the merchant and cadence kept matching.
	FlagPriceChange Flag = "price_change"
	// FlagMissedPayment marks a pattern with a gap long enough to imply a
	// skipped cycle.
	FlagMissedPayment Flag = "missed_payment"
	// FlagIrregularTiming marks a custom-cadence pattern.
	FlagIrregularTiming Flag = "irregular_timing"
)

// missedPaymentRatio is how many expected cycles a gap must span before a
// payment counts as missed.
const missedPaymentRatio = 1.5

// FlagOptions tunes anomaly detection.
type FlagOptions struct {
	// PriceChangePercent is the smallest step between consecutive amounts,
	// relative to the earlier amount, that counts as a price change.
	PriceChangePercent float64
}

// DetectFlags annotates a date-ordered group. The group is never split:
// price steps and missed cycles are reported as flags on the one pattern.
// The returned slice is sorted and free of duplicates.
func DetectFlags(txs []models.Transaction, intervals []int, amounts []float64, f Frequency, opts FlagOptions) []Flag {
	set := make(map[Flag]struct{})

	if hasPriceChange(amounts, opts.PriceChangePercent) {
		set[FlagPriceChange] = struct{}{}
	}

	if expected := f.ExpectedDays(); expected > 0 {
		for _, gap := range intervals {
			if float64(gap) > missedPaymentRatio*expected {
				set[FlagMissedPayment] = struct{}{}
				break
			}
		}
	} else if f == FrequencyCustom && len(txs) > 2 {
		set[FlagIrregularTiming] = struct{}{}
	}

	flags := make([]Flag, 0, len(set))
	for flag := range set {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}

func hasPriceChange(amounts []float64, thresholdPercent float64) bool {
	for i := 1; i < len(amounts); i++ {
		prev := math.Abs(amounts[i-1])
		if prev == 0 {
			continue
		}
		step := math.Abs(math.Abs(amounts[i])-prev) / prev * 100
		if step > thresholdPercent {
			return true
		}
	}
	return false
}

// HasFlag reports whether flags contains f.
func HasFlag(flags []Flag, f Flag) bool {
	for _, flag := range flags {
		if flag == f {
			return true
		}
	}
	return false
}
