package stats

import (
	"math"
	"sort"
)

// Band describes one cluster of a one-dimensional sample.
type Band struct {
	Center float64
	Min    float64
	Max    float64
	Mean   float64
	Count  int
}

const kmeansMaxIterations = 100

// KMeans1D partitions values into k bands with Lloyd's algorithm.
// Centers are seeded at evenly spaced quantiles of the sorted sample,
// which keeps runs deterministic. Returns nil when the sample is
// smaller than k or k is not positive. Bands come back ordered by
// center; bands left empty after convergence are dropped.
func KMeans1D(values []float64, k int) []Band {
	if k <= 0 || len(values) < k {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	centers := make([]float64, k)
	for i := range centers {
		centers[i] = sorted[(2*i+1)*len(sorted)/(2*k)]
	}

	assign := make([]int, len(sorted))
	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, v := range sorted {
			if best := nearestCenter(centers, v); best != assign[i] {
				assign[i] = best
				changed = true
			}
		}

		sums := make([]float64, k)
		counts := make([]int, k)
		for i, v := range sorted {
			sums[assign[i]] += v
			counts[assign[i]]++
		}
		for c := range centers {
			if counts[c] > 0 {
				centers[c] = sums[c] / float64(counts[c])
			}
		}

		if !changed {
			break
		}
	}

	return bandsFrom(sorted, assign, centers, k)
}

// RangeBands splits the sorted sample into k contiguous groups of
// near-equal size; the last group absorbs the remainder. Returns nil
// when the sample is smaller than k or k is not positive.
func RangeBands(values []float64, k int) []Band {
	if k <= 0 || len(values) < k {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	size := len(sorted) / k
	bands := make([]Band, 0, k)
	for i := 0; i < k; i++ {
		start := i * size
		end := start + size
		if i == k-1 {
			end = len(sorted)
		}
		group := sorted[start:end]
		if len(group) == 0 {
			continue
		}
		mean := Mean(group)
		bands = append(bands, Band{
			Center: mean,
			Min:    group[0],
			Max:    group[len(group)-1],
			Mean:   mean,
			Count:  len(group),
		})
	}
	return bands
}

func nearestCenter(centers []float64, v float64) int {
	best := 0
	bestDist := math.Abs(v - centers[0])
	for c := 1; c < len(centers); c++ {
		if d := math.Abs(v - centers[c]); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func bandsFrom(sorted []float64, assign []int, centers []float64, k int) []Band {
	bands := make([]Band, k)
	sums := make([]float64, k)
	for i := range bands {
		bands[i].Center = centers[i]
		bands[i].Min = math.Inf(1)
		bands[i].Max = math.Inf(-1)
	}
	for i, v := range sorted {
		b := &bands[assign[i]]
		b.Count++
		sums[assign[i]] += v
		if v < b.Min {
			b.Min = v
		}
		if v > b.Max {
			b.Max = v
		}
	}

	out := make([]Band, 0, k)
	for i := range bands {
		if bands[i].Count == 0 {
			continue
		}
		bands[i].Mean = sums[i] / float64(bands[i].Count)
		out = append(out, bands[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Center < out[j].Center })
	return out
}
