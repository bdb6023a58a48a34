// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package logo

import (
	"math"
	"slices"
)

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// StdDev returns the sample standard deviation (n-1), 0 below two values.
func StdDev(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	m := Mean(v)
	var acc float64
	for _, x := range v {
		acc += (x - m) * (x - m)
	}
	return math.Sqrt(acc / float64(len(v)-1))
}

// Quantile is the nearest-rank quantile at index round(q*(n-1)). q <= 0
// yields the minimum and q >= 1 the maximum. v is not modified.
func Quantile(v []float64, q float64) float64 {
	if len(v) == 0 {
		return 0
	}
	if q <= 0 {
		return slices.Min(v)
	}
	if q >= 1 {
		return slices.Max(v)
	}
	s := slices.Clone(v)
	slices.Sort(s)
	idx := int(math.Round(q * float64(len(s)-1)))
	return s[idx]
}

// Median returns the element at index n/2 of the sorted values.
func Median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := slices.Clone(v)
	slices.Sort(s)
	return s[len(s)/2]
}

// MeanHistogram averages the rows selected by idx.
func MeanHistogram(data [][]float64, idx []int) []float64 {
	if len(data) == 0 {
		return nil
	}
	acc := make([]float64, len(data[0]))
	for _, r := range idx {
		for j, x := range data[r] {
			acc[j] += x
		}
	}
	n := float64(max(1, len(idx)))
	for j := range acc {
		acc[j] /= n
	}
	return acc
}
