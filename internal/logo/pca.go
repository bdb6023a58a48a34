// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package logo

import "math"

// Point is a sample in the 2-D principal subspace.
type Point [2]float64

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p[0]-q[0], p[1]-q[1])
}

// PCA holds the mean row and the two leading principal axes of a
// row-major data set.
type PCA struct {
	Mean       []float64
	Components [2][]float64
}

const (
	powerMaxIter = 1000
	powerTol     = 1e-12
)

// FitPCA computes the two leading eigenvectors of the covariance of data
// with power iteration and deflation. The start vector is fixed and every
// axis is sign-normalised (largest-magnitude coordinate positive), so
// identical input always yields identical axes.
func FitPCA(data [][]float64) PCA {
	if len(data) == 0 {
		return PCA{}
	}
	d := len(data[0])
	n := float64(len(data))

	mean := make([]float64, d)
	for _, row := range data {
		for j, x := range row {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	cov := make([][]float64, d)
	for i := range cov {
		cov[i] = make([]float64, d)
	}
	centered := make([]float64, d)
	for _, row := range data {
		for j := range row {
			centered[j] = row[j] - mean[j]
		}
		for i := 0; i < d; i++ {
			ci := centered[i]
			if ci == 0 {
				continue
			}
			ri := cov[i]
			for j := i; j < d; j++ {
				ri[j] += ci * centered[j]
			}
		}
	}
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			cov[i][j] /= n
			cov[j][i] = cov[i][j]
		}
	}

	p := PCA{Mean: mean}
	for c := 0; c < 2; c++ {
		vec, lambda := powerIterate(cov, p.Components[:c])
		p.Components[c] = vec
		if lambda <= 0 {
			continue
		}
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				cov[i][j] -= lambda * vec[i] * vec[j]
			}
		}
	}
	return p
}

// powerIterate returns the dominant unit eigenvector of m orthogonal to
// prev, and its eigenvalue. A zero matrix yields the zero vector.
func powerIterate(m [][]float64, prev [][]float64) ([]float64, float64) {
	d := len(m)
	v := make([]float64, d)
	for i := range v {
		v[i] = 1 + float64(i%7)/7
	}
	orthogonalize(v, prev)
	if normalize(v) == 0 {
		return make([]float64, d), 0
	}

	w := make([]float64, d)
	var lambda float64
	for iter := 0; iter < powerMaxIter; iter++ {
		for i := 0; i < d; i++ {
			var s float64
			row := m[i]
			for j := 0; j < d; j++ {
				s += row[j] * v[j]
			}
			w[i] = s
		}
		orthogonalize(w, prev)
		lambda = normalize(w)
		if lambda < 1e-18 {
			return make([]float64, d), 0
		}
		var delta float64
		for i := range w {
			delta += (w[i] - v[i]) * (w[i] - v[i])
		}
		v, w = w, v
		if delta < powerTol {
			break
		}
	}

	maxIdx := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[maxIdx]) {
			maxIdx = i
		}
	}
	if v[maxIdx] < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
	return v, lambda
}

func orthogonalize(v []float64, basis [][]float64) {
	for _, b := range basis {
		if len(b) != len(v) {
			continue
		}
		var dot float64
		for i := range v {
			dot += v[i] * b[i]
		}
		for i := range v {
			v[i] -= dot * b[i]
		}
	}
}

func normalize(v []float64) float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return 0
	}
	for i := range v {
		v[i] /= norm
	}
	return norm
}

// Project maps one row into the principal subspace.
func (p PCA) Project(row []float64) Point {
	var out Point
	for c, comp := range p.Components {
		if len(comp) == 0 {
			continue
		}
		var s float64
		for j := range row {
			if j >= len(comp) || j >= len(p.Mean) {
				break
			}
			s += (row[j] - p.Mean[j]) * comp[j]
		}
		out[c] = s
	}
	return out
}

// ProjectAll maps every row.
func (p PCA) ProjectAll(data [][]float64) []Point {
	out := make([]Point, len(data))
	for i, row := range data {
		out[i] = p.Project(row)
	}
	return out
}
