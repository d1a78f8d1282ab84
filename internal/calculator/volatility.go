package calculator

import "math"

// TradingDaysPerYear annualises daily statistics.
const TradingDaysPerYear = 252

// PctChanges returns day-over-day fractional changes between consecutive usable values.
func PctChanges(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	prev := math.NaN()
	for _, v := range values {
		if !usable(v) {
			continue
		}
		if !math.IsNaN(prev) {
			out = append(out, v/prev-1)
		}
		prev = v
	}
	return out
}

// StdDev is the sample standard deviation (n-1). Fewer than two values yield 0.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// AnnualizedVolatility scales the daily return deviation by sqrt(252).
func AnnualizedVolatility(values []float64) float64 {
	return StdDev(PctChanges(values)) * math.Sqrt(TradingDaysPerYear)
}
