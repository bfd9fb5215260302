package utils

import (
	"math"
	"sort"
)

// Round2 rounds to two decimal places. Used for prices and scores in
// report payloads.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round4 rounds to four decimal places. Used for rates.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Clamp01 pins v into [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Median returns the middle value of vs, averaging the two middle values
// for an even count, and 0 for an empty slice. vs is copied before
// sorting so the caller's order is preserved.
func Median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
