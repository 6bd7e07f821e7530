package recurring

import "math"

// Weights of the three confidence factors. They sum to 1.
const (
	regularityWeight = 0.4
	stabilityWeight  = 0.3
	sampleWeight     = 0.3
)

// Factors are the normalized inputs to a confidence score, each in [0,1].
type Factors struct {
	Regularity      float64 `json:"regularity"`
	AmountStability float64 `json:"amount_stability"`
	SampleSize      float64 `json:"sample_size"`
}

// RegularityFactor measures how tightly the intervals follow the cadence.
// Each gap's deviation is its distance from the cadence's natural range;
// the root-mean-square deviation relative to the expected cycle length
// plays the role of a coefficient of variation. Custom cadences are
// measured against their own mean gap.
func RegularityFactor(intervals []int, f Frequency) float64 {
	if len(intervals) == 0 {
		return 0
	}

	var relative float64
	if b, ok := bucketFor(f); ok {
		var sumSq float64
		for _, gap := range intervals {
			d := b.distance(float64(gap))
			sumSq += d * d
		}
		relative = math.Sqrt(sumSq/float64(len(intervals))) / b.expected
	} else {
		relative = coefficientOfVariation(toFloats(intervals))
	}

	return 1 / (1 + 4*relative)
}

// AmountStabilityFactor is the inverse of the amounts' coefficient of
// variation. A single price step lowers it without zeroing it.
func AmountStabilityFactor(amounts []float64) float64 {
	if len(amounts) == 0 {
		return 0
	}
	abs := make([]float64, len(amounts))
	for i, a := range amounts {
		abs[i] = math.Abs(a)
	}
	return 1 / (1 + 10*coefficientOfVariation(abs))
}

// SampleSizeFactor grows with diminishing returns: 2 observations give 0.5,
// 3 give 0.75, 5 give 0.94.
func SampleSizeFactor(n int) float64 {
	if n < 2 {
		return 0
	}
	return 1 - math.Pow(0.5, float64(n-1))
}

// Score combines the three factors into a confidence in [0,1]. Identical
// amounts are simply a zero-variance input; no input shape short-circuits
// to a fixed score.
func Score(intervals []int, amounts []float64, f Frequency, sampleSize int) (float64, Factors) {
	factors := Factors{
		Regularity:      RegularityFactor(intervals, f),
		AmountStability: AmountStabilityFactor(amounts),
		SampleSize:      SampleSizeFactor(sampleSize),
	}
	score := regularityWeight*factors.Regularity +
		stabilityWeight*factors.AmountStability +
		sampleWeight*factors.SampleSize
	return clamp01(score), factors
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
