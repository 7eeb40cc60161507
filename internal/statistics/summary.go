// Package statistics computes the descriptive statistics used by
// diagnostics: per-feature column summaries over a dataset and bootstrap
// confidence intervals over score distributions.
package statistics

import (
	"math"

	"github.com/additive-ml/gamekit/internal/dataset"
)

// FeatureSummary holds the descriptive statistics of one feature column.
// Zeros absent from the sparse representation still count toward the
// moments, min and max.
type FeatureSummary struct {
	Count    int     `json:"count"`
	NonZeros int     `json:"non_zeros"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	NormL1   float64 `json:"norm_l1"`
	NormL2   float64 `json:"norm_l2"`
}

// SummarizeShard computes a FeatureSummary for every feature index
// appearing in the given shard across the whole dataset. Returns an empty
// map for an empty dataset.
func SummarizeShard(ds *dataset.Dataset, shard string) map[int]FeatureSummary {
	type accum struct {
		sum    float64
		sumSq  float64
		sumAbs float64
		min    float64
		max    float64
		nnz    int
	}

	n := ds.Len()
	accums := map[int]*accum{}
	for _, part := range ds.Partitions() {
		for _, d := range part {
			v := d.Features[shard]
			for i, idx := range v.Indices {
				x := v.Values[i]
				a := accums[idx]
				if a == nil {
					a = &accum{min: x, max: x}
					accums[idx] = a
				}
				a.sum += x
				a.sumSq += x * x
				a.sumAbs += math.Abs(x)
				a.min = math.Min(a.min, x)
				a.max = math.Max(a.max, x)
				a.nnz++
			}
		}
	}

	out := make(map[int]FeatureSummary, len(accums))
	for idx, a := range accums {
		mean := a.sum / float64(n)
		// Population variance over all n rows, implicit zeros included.
		variance := a.sumSq/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		s := FeatureSummary{
			Count:    n,
			NonZeros: a.nnz,
			Mean:     mean,
			Variance: variance,
			Min:      a.min,
			Max:      a.max,
			NormL1:   a.sumAbs,
			NormL2:   math.Sqrt(a.sumSq),
		}
		if a.nnz < n {
			s.Min = math.Min(s.Min, 0)
			s.Max = math.Max(s.Max, 0)
		}
		out[idx] = s
	}
	return out
}

// Mean computes the arithmetic mean of a float64 slice. Returns 0 for
// empty input.
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

// Variance computes the population variance. Returns 0 for empty input.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return sumSq / float64(len(values))
}

// StdDev computes the population standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}
