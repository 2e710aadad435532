// Package stats provides the descriptive statistics, correlation and
// price clustering primitives behind the statistics endpoints. All
// functions operate on plain float64 slices and never modify their
// input.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics for one sample.
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe computes summary statistics over values. An empty sample
// yields a zero Summary.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	return Summary{
		Count:  len(values),
		Mean:   Mean(values),
		Median: Median(values),
		StdDev: StdDev(values),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}
}

// Mean returns the arithmetic mean, or 0 for an empty sample.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the sample standard deviation. Samples with fewer
// than two values have no spread and return 0.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Median returns the midpoint of the sample, averaging the two middle
// values for even counts. gonum's quantile estimators interpolate the
// empirical CDF instead, so the median is computed directly.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// RoundEuros converts a euro amount with fractional cents to the
// nearest whole euro.
func RoundEuros(v float64) int64 {
	return int64(math.Round(v))
}
