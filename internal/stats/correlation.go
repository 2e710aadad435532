package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Pearson returns the Pearson correlation coefficient between x and y
// along with the number of pairs used. Pairs where either value is NaN
// are dropped before computing. Fewer than two usable pairs, or a
// constant series on either side, yield a coefficient of 0.
func Pearson(x, y []float64) (float64, int) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}

	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}

	if len(xs) < 2 {
		return 0, len(xs)
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		// Zero variance on one side.
		return 0, len(xs)
	}
	return r, len(xs)
}

// Interpret classifies the strength of a correlation coefficient.
func Interpret(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs < 0.1:
		return "Negligible correlation"
	case abs < 0.3:
		return "Weak correlation"
	case abs < 0.5:
		return "Moderate correlation"
	case abs < 0.7:
		return "Strong correlation"
	default:
		return "Very strong correlation"
	}
}
