// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classify

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/ManuGH/adscan/internal/logo"
)

const (
	mcdSupportFraction = 0.75
	mcdTrials          = 20
	mcdMaxSteps        = 100
	mcdSeed            = 42
)

// MCD is a Minimum Covariance Determinant estimate of a 2-D point cloud.
type MCD struct {
	Center  logo.Point
	Cov     [2][2]float64
	Det     float64
	Support []int
	inv     [2][2]float64
}

// FitMCD runs FAST-MCD style concentration steps from fixed-seed random
// subsets of size max(3, ceil(fraction*n)) and keeps the subset with the
// smallest covariance determinant.
func FitMCD(pts []logo.Point, fraction float64) *MCD {
	n := len(pts)
	if n == 0 {
		return &MCD{}
	}
	h := min(n, max(3, int(math.Ceil(fraction*float64(n)))))
	rng := rand.New(rand.NewPCG(mcdSeed, mcdSeed))

	bestDet := math.MaxFloat64
	var best []int
	for trial := 0; trial < mcdTrials; trial++ {
		subset := rng.Perm(n)[:h]
		prev := math.MaxFloat64
		for step := 0; step < mcdMaxSteps; step++ {
			det := cStep(pts, subset, h)
			if math.Abs(det-prev) < 1e-18 {
				break
			}
			prev = det
		}
		if prev < bestDet {
			bestDet = prev
			best = slices.Clone(subset)
		}
	}

	center, cov := subsetStats(pts, best)
	cov = regularize(cov)
	m := &MCD{Center: center, Cov: cov, Det: det2(cov), Support: best}
	m.inv = inv2(cov)
	slices.Sort(m.Support)
	return m
}

// cStep replaces subset with the h points closest to the subset's own
// estimate and returns that estimate's determinant.
func cStep(pts []logo.Point, subset []int, h int) float64 {
	center, cov := subsetStats(pts, subset)
	cov = regularize(cov)
	inv := inv2(cov)

	ranked := make([]neighbour, len(pts))
	for i, p := range pts {
		ranked[i] = neighbour{mahalanobis(p, center, inv), i}
	}
	sortNeighbours(ranked)
	for i := 0; i < h; i++ {
		subset[i] = ranked[i].idx
	}
	return det2(cov)
}

func subsetStats(pts []logo.Point, idx []int) (logo.Point, [2][2]float64) {
	var c logo.Point
	for _, i := range idx {
		c[0] += pts[i][0]
		c[1] += pts[i][1]
	}
	n := float64(max(1, len(idx)))
	c[0] /= n
	c[1] /= n

	var cov [2][2]float64
	for _, i := range idx {
		dx, dy := pts[i][0]-c[0], pts[i][1]-c[1]
		cov[0][0] += dx * dx
		cov[0][1] += dx * dy
		cov[1][1] += dy * dy
	}
	nn := math.Max(1, float64(len(idx)-1))
	cov[0][0] /= nn
	cov[0][1] /= nn
	cov[1][1] /= nn
	cov[1][0] = cov[0][1]
	return c, cov
}

func regularize(cov [2][2]float64) [2][2]float64 {
	if det2(cov) < 1e-15 {
		cov[0][0] += 1e-10
		cov[1][1] += 1e-10
	}
	return cov
}

func det2(m [2][2]float64) float64 {
	return m[0][0]*m[1][1] - m[0][1]*m[1][0]
}

func inv2(m [2][2]float64) [2][2]float64 {
	d := det2(m)
	if d == 0 {
		return [2][2]float64{}
	}
	return [2][2]float64{
		{m[1][1] / d, -m[0][1] / d},
		{-m[1][0] / d, m[0][0] / d},
	}
}

func mahalanobis(p, c logo.Point, inv [2][2]float64) float64 {
	dx, dy := p[0]-c[0], p[1]-c[1]
	d2 := dx*dx*inv[0][0] + 2*dx*dy*inv[0][1] + dy*dy*inv[1][1]
	return math.Sqrt(max(0, d2))
}

// Distance is the Mahalanobis distance of p from the robust center.
func (m *MCD) Distance(p logo.Point) float64 {
	return mahalanobis(p, m.Center, m.inv)
}

// Distances returns the Mahalanobis distance of every point.
func (m *MCD) Distances(pts []logo.Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = m.Distance(p)
	}
	return out
}
