// Package stats provides the small numeric helpers shared by the detection
// pipeline and the grid angle search.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Median returns the median of values without modifying them. An even count
// averages the two middle values after an ascending sort; an odd count takes
// the middle value. ok is false for an empty input, in which case the median
// is undefined and NaN is returned.
func Median(values []float64) (median float64, ok bool) {
	n := len(values)
	if n == 0 {
		return math.NaN(), false
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2, true
	}
	return sorted[n/2], true
}

// MedianInts is Median for integer samples such as pixel areas or angles.
func MedianInts(values []int) (float64, bool) {
	f := make([]float64, len(values))
	for i, v := range values {
		f[i] = float64(v)
	}
	return Median(f)
}

// Summary describes a sample of region areas.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Summarize computes count, mean, sample standard deviation, extremes and
// median. An empty sample yields a zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	median, _ := Median(values)

	return Summary{
		Count:  len(values),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Median: median,
	}
}
