// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classify

import (
	"slices"

	"github.com/ManuGH/adscan/internal/frames"
	"github.com/ManuGH/adscan/internal/logo"
)

const (
	// Noise marks points that belong to no cluster.
	Noise = -1
	// Unassigned marks points not yet visited; none survive DBSCANLabels.
	Unassigned = -99

	autoEpsFactor = 1.6
	fallbackEps   = 0.5
)

// AutoEps estimates a DBSCAN radius as 1.6x the median distance from each
// point to its (k-1)-th nearest other point, k = clamp(minPts, 2, n-1).
// It returns 0 when fewer than three points are given.
func AutoEps(pts []logo.Point, minPts int) float64 {
	n := len(pts)
	if n <= 2 {
		return 0
	}
	k := max(2, min(minPts, n-1))

	kth := make([]float64, 0, n)
	d := make([]float64, 0, n-1)
	for i := range pts {
		d = d[:0]
		for j := range pts {
			if i != j {
				d = append(d, pts[i].Dist(pts[j]))
			}
		}
		if len(d) < k-1 {
			continue
		}
		slices.Sort(d)
		kth = append(kth, d[k-2])
	}
	if len(kth) == 0 {
		return 0
	}
	return logo.Median(kth) * autoEpsFactor
}

// DBSCANLabels clusters pts. Cluster ids start at 0 in discovery order;
// points in no cluster are labelled Noise. Neighbourhoods include the
// point itself.
func DBSCANLabels(pts []logo.Point, eps float64, minPts int) []int {
	n := len(pts)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Unassigned
	}
	visited := make([]bool, n)
	inSeed := make([]bool, n)

	cluster := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbours := regionQuery(pts, i, eps)
		if len(neighbours) < minPts {
			labels[i] = Noise
			continue
		}

		clear(inSeed)
		seed := make([]int, 0, len(neighbours))
		for _, q := range neighbours {
			if !inSeed[q] {
				inSeed[q] = true
				seed = append(seed, q)
			}
		}

		labels[i] = cluster
		for si := 0; si < len(seed); si++ {
			p := seed[si]
			if !visited[p] {
				visited[p] = true
				if more := regionQuery(pts, p, eps); len(more) >= minPts {
					for _, q := range more {
						if !inSeed[q] {
							inSeed[q] = true
							seed = append(seed, q)
						}
					}
				}
			}
			if labels[p] == Unassigned || labels[p] == Noise {
				labels[p] = cluster
			}
		}
		cluster++
	}

	for i, l := range labels {
		if l == Unassigned {
			labels[i] = Noise
		}
	}
	return labels
}

func regionQuery(pts []logo.Point, i int, eps float64) []int {
	var out []int
	eps2 := eps * eps
	for j := range pts {
		dx, dy := pts[i][0]-pts[j][0], pts[i][1]-pts[j][1]
		if dx*dx+dy*dy <= eps2 {
			out = append(out, j)
		}
	}
	return out
}

// LogoCluster picks the cluster holding the most seeds, or the largest
// cluster when no seed is clustered. Ties go to the lowest label. It
// returns Noise when labels contain no cluster.
func LogoCluster(labels []int, seeds []int) int {
	maxLabel := Noise
	for _, l := range labels {
		maxLabel = max(maxLabel, l)
	}
	if maxLabel < 0 {
		return Noise
	}

	sizes := make([]int, maxLabel+1)
	overlap := make([]int, maxLabel+1)
	for _, l := range labels {
		if l >= 0 {
			sizes[l]++
		}
	}
	for _, s := range seeds {
		if s >= 0 && s < len(labels) && labels[s] >= 0 {
			overlap[labels[s]]++
		}
	}

	best, bestCount := Noise, 0
	for l, c := range overlap {
		if c > bestCount {
			best, bestCount = l, c
		}
	}
	if best >= 0 {
		return best
	}
	for l, c := range sizes {
		if c > bestCount {
			best, bestCount = l, c
		}
	}
	return best
}

type dbscanClassifier struct {
	requested string
	pca       logo.PCA
	eps       float64
	minPts    int
	logoLabel int
	// cores are the core points of the logo cluster.
	cores     []logo.Point
	decisions []Decision
}

func newDBSCAN(p Params, in Input) *dbscanClassifier {
	pts := in.Training.Projection
	n := len(pts)
	c := &dbscanClassifier{
		pca:    in.Training.PCA,
		minPts: clampInt(p.DBSCANMinPts, 2, max(2, n)),
	}
	c.eps = p.DBSCANEps
	if c.eps <= 0 {
		c.eps = AutoEps(pts, c.minPts)
	}
	if c.eps <= 0 {
		c.eps = fallbackEps
	}

	labels := DBSCANLabels(pts, c.eps, c.minPts)
	c.logoLabel = LogoCluster(labels, in.Training.Model.Seeds)

	c.decisions = make([]Decision, n)
	for i, l := range labels {
		present := c.logoLabel < 0 || l == c.logoLabel
		c.decisions[i] = binary(present, float64(l))
		if c.logoLabel >= 0 && l == c.logoLabel && len(regionQuery(pts, i, c.eps)) >= c.minPts {
			c.cores = append(c.cores, pts[i])
		}
	}
	return c
}

func (c *dbscanClassifier) Name() string          { return DBSCAN }
func (c *dbscanClassifier) Decisions() []Decision { return c.decisions }

// Probe projects the histogram and accepts it when it lies within eps of a
// core point of the logo cluster.
func (c *dbscanClassifier) Probe(obs frames.Observation) bool {
	if c.logoLabel < 0 {
		return true
	}
	pt := c.pca.Project(obs.Histogram)
	for _, core := range c.cores {
		if pt.Dist(core) <= c.eps {
			return true
		}
	}
	return false
}

func (c *dbscanClassifier) Detection() Detection {
	return Detection{
		Strategy:          DBSCAN,
		RequestedStrategy: c.requested,
		DBSCAN: &DBSCANReport{
			Eps:              c.eps,
			MinPts:           c.minPts,
			LogoClusterLabel: c.logoLabel,
		},
	}
}
