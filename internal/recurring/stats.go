package recurring

import (
	"math"
	"sort"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// coefficientOfVariation is stddev/|mean|, 0 for an empty or zero-mean set.
func coefficientOfVariation(values []float64) float64 {
	m := math.Abs(mean(values))
	if m == 0 {
		return 0
	}
	return stddev(values) / m
}

// lowerMedian returns the middle value, taking the lower of the two middle
// values for even-length input. One skipped cycle among two gaps (30, 60)
// therefore still reads as the regular cadence.
func lowerMedian(values []int) int {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	return sorted[(len(sorted)-1)/2]
}

func toFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
