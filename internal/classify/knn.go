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
	minKNNSeeds  = 3
	knnSeedSlack = 1.02
)

// knnClassifier scores a histogram by its mean Bhattacharyya distance to
// the k nearest logo seeds.
type knnClassifier struct {
	seedHists [][]float64
	seeds     []int
	k         int
	quantile  float64
	threshold float64
	decisions []Decision
}

func newKNN(p Params, in Input) *knnClassifier {
	seeds := in.Training.Model.Seeds
	c := &knnClassifier{
		seeds:    seeds,
		k:        clampInt(p.KNNK, 1, len(seeds)-1),
		quantile: p.KNNQuantile,
	}
	c.seedHists = make([][]float64, len(seeds))
	for i, s := range seeds {
		c.seedHists[i] = in.Histograms[s]
	}

	seedScores := make([]float64, len(seeds))
	for i, s := range seeds {
		seedScores[i] = c.score(in.Histograms[s], s)
	}
	c.threshold = logo.Quantile(seedScores, c.quantile)
	if maxSeed := slices.Max(seedScores); c.threshold < maxSeed {
		c.threshold = maxSeed * knnSeedSlack
	}

	c.decisions = make([]Decision, len(in.Histograms))
	for i, h := range in.Histograms {
		s := c.score(h, i)
		c.decisions[i] = binary(s <= c.threshold, s)
	}
	return c
}

// score averages the k smallest seed distances, skipping the seed whose
// sample index equals self. Pass -1 for observations outside the set.
func (c *knnClassifier) score(h []float64, self int) float64 {
	d := make([]float64, 0, len(c.seeds))
	for i, s := range c.seeds {
		if s == self {
			continue
		}
		d = append(d, frames.Bhattacharyya(h, c.seedHists[i]))
	}
	if len(d) == 0 {
		return 0
	}
	kk := clampInt(c.k, 1, len(d))
	slices.Sort(d)
	var sum float64
	for _, x := range d[:kk] {
		sum += x
	}
	return sum / float64(kk)
}

func (c *knnClassifier) Name() string          { return KNN }
func (c *knnClassifier) Decisions() []Decision { return c.decisions }

func (c *knnClassifier) Probe(obs frames.Observation) bool {
	return c.score(obs.Histogram, -1) <= c.threshold
}

func (c *knnClassifier) Detection() Detection {
	return Detection{
		Strategy: KNN,
		KNN: &KNNReport{
			K:         c.k,
			Quantile:  c.quantile,
			Threshold: c.threshold,
			SeedCount: len(c.seeds),
		},
	}
}
