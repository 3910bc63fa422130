package metrics

import "math"

// Mean calculates the arithmetic mean. Returns 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopulationStddev calculates the population standard deviation (n denominator).
// Returns 0 for fewer than 2 values.
func PopulationStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n))
}

// PayoffRatio returns avgWin / avgLoss (both positive magnitudes).
// With no losses it returns capped when there were wins, else 0.
func PayoffRatio(avgWin, avgLoss, capped float64) float64 {
	if avgLoss > 0 {
		return avgWin / avgLoss
	}
	if avgWin > 0 {
		return capped
	}
	return 0
}
