// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classify

import (
	"cmp"
	"slices"

	"github.com/ManuGH/adscan/internal/frames"
	"github.com/ManuGH/adscan/internal/logo"
)

const denseLRD = 1e12

type neighbour struct {
	dist float64
	idx  int
}

// LOFModel holds the neighbourhood structure of a training set so that
// scores can be computed for training points and new points alike.
type LOFModel struct {
	pts   []logo.Point
	k     int
	kdist []float64
	lrd   []float64
	knn   [][]int
}

// FitLOF prepares local outlier factors with k = clamp(k, 2, n-1). With
// two points or fewer every score is 1.
func FitLOF(pts []logo.Point, k int) *LOFModel {
	n := len(pts)
	m := &LOFModel{pts: pts}
	if n <= 2 {
		return m
	}
	m.k = clampInt(k, 2, n-1)
	m.kdist = make([]float64, n)
	m.knn = make([][]int, n)

	tmp := make([]neighbour, 0, n-1)
	for i := range pts {
		tmp = tmp[:0]
		for j := range pts {
			if i != j {
				tmp = append(tmp, neighbour{pts[i].Dist(pts[j]), j})
			}
		}
		sortNeighbours(tmp)
		m.kdist[i] = tmp[m.k-1].dist
		ids := make([]int, m.k)
		for t := range ids {
			ids[t] = tmp[t].idx
		}
		m.knn[i] = ids
	}

	m.lrd = make([]float64, n)
	for i := range pts {
		var sum float64
		for _, j := range m.knn[i] {
			sum += max(m.kdist[j], pts[i].Dist(pts[j]))
		}
		m.lrd[i] = lrdFrom(len(m.knn[i]), sum)
	}
	return m
}

func sortNeighbours(ns []neighbour) {
	slices.SortStableFunc(ns, func(a, b neighbour) int {
		return cmp.Compare(a.dist, b.dist)
	})
}

func lrdFrom(k int, sumReach float64) float64 {
	if sumReach <= 1e-12 {
		return denseLRD
	}
	return float64(k) / sumReach
}

// K is the neighbourhood size in use.
func (m *LOFModel) K() int { return m.k }

// Scores returns the LOF of every training point.
func (m *LOFModel) Scores() []float64 {
	out := make([]float64, len(m.pts))
	for i := range out {
		out[i] = 1
		if m.lrd == nil || m.lrd[i] <= 1e-12 {
			continue
		}
		var sum float64
		for _, j := range m.knn[i] {
			sum += m.lrd[j] / m.lrd[i]
		}
		out[i] = sum / float64(len(m.knn[i]))
	}
	return out
}

// Score is the novelty LOF of p against the training points.
func (m *LOFModel) Score(p logo.Point) float64 {
	if m.lrd == nil {
		return 1
	}
	tmp := make([]neighbour, len(m.pts))
	for j, q := range m.pts {
		tmp[j] = neighbour{p.Dist(q), j}
	}
	sortNeighbours(tmp)
	near := tmp[:m.k]

	var sumReach float64
	for _, nb := range near {
		sumReach += max(m.kdist[nb.idx], nb.dist)
	}
	lrdP := lrdFrom(len(near), sumReach)

	var sum float64
	for _, nb := range near {
		sum += m.lrd[nb.idx] / lrdP
	}
	return sum / float64(len(near))
}

type lofClassifier struct {
	pca       logo.PCA
	model     *LOFModel
	threshold float64
	decisions []Decision
}

func newLOF(p Params, in Input) *lofClassifier {
	c := &lofClassifier{
		pca:       in.Training.PCA,
		model:     FitLOF(in.Training.Projection, p.LOFK),
		threshold: p.LOFThreshold,
	}
	scores := c.model.Scores()
	c.decisions = make([]Decision, len(scores))
	for i, s := range scores {
		c.decisions[i] = binary(s < c.threshold, s)
	}
	return c
}

func (c *lofClassifier) Name() string          { return LOF }
func (c *lofClassifier) Decisions() []Decision { return c.decisions }

func (c *lofClassifier) Probe(obs frames.Observation) bool {
	return c.model.Score(c.pca.Project(obs.Histogram)) < c.threshold
}

func (c *lofClassifier) Detection() Detection {
	return Detection{
		Strategy: LOF,
		LOF:      &LOFReport{K: c.model.K(), Threshold: c.threshold},
	}
}
