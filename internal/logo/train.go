// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package logo builds the "logo present" appearance model from training
// histograms: a 2-D principal projection, a k-means split, the dominant
// cluster's mean histogram, a dense seed subset and a distance threshold.
package logo

import (
	"fmt"
	"slices"

	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/frames"
)

const (
	seedQuantile   = 0.85
	minSeeds       = 5
	thresholdSigma = 5.0
	minThreshold   = 0.05
	maxThreshold   = 0.95
)

// Model is the trained logo appearance. It is read-only after Train.
type Model struct {
	Corner    frames.Corner
	Mean      []float64
	Threshold float64
	// Seeds are sample indices, ascending, of the dense core of the logo
	// cluster.
	Seeds []int
}

// Distance is the Bhattacharyya distance of hist to the mean histogram.
func (m *Model) Distance(hist []float64) float64 {
	return frames.Bhattacharyya(hist, m.Mean)
}

// IsSeed reports whether sample i is a seed.
func (m *Model) IsSeed(i int) bool {
	_, ok := slices.BinarySearch(m.Seeds, i)
	return ok
}

// Training is everything derived from the training samples.
type Training struct {
	Model       Model
	PCA         PCA
	Projection  []Point
	Labels      []int
	LogoCluster int
}

// Train fits the model on hists (one L1-normalised histogram per sample,
// in sample order) using k-means with k clusters.
func Train(hists [][]float64, corner frames.Corner, k int) (*Training, error) {
	if len(hists) < faults.MinSamples {
		return nil, fmt.Errorf("%w: %d usable samples, need %d", faults.ErrInsufficientSamples, len(hists), faults.MinSamples)
	}
	if k < 2 {
		return nil, fmt.Errorf("%w: k must be >= 2, got %d", faults.ErrConfiguration, k)
	}

	pca := FitPCA(hists)
	proj := pca.ProjectAll(hists)
	labels := KMeans(proj, k, DefaultKMeansOptions())

	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}
	logoCluster := 0
	for c := range counts {
		if counts[c] > counts[logoCluster] {
			logoCluster = c
		}
	}

	var members, others []int
	for i, l := range labels {
		if l == logoCluster {
			members = append(members, i)
		} else {
			others = append(others, i)
		}
	}

	mean := MeanHistogram(hists, members)
	dAll := make([]float64, len(members))
	for i, r := range members {
		dAll[i] = frames.Bhattacharyya(hists[r], mean)
	}
	cut := Quantile(dAll, seedQuantile)
	seeds := make([]int, 0, len(members))
	for i, r := range members {
		if dAll[i] <= cut {
			seeds = append(seeds, r)
		}
	}
	if len(seeds) < min(minSeeds, len(members)) {
		seeds = members
	} else {
		mean = MeanHistogram(hists, seeds)
	}

	dSeed := make([]float64, len(seeds))
	for i, r := range seeds {
		dSeed[i] = frames.Bhattacharyya(hists[r], mean)
	}
	nonSeeds := others
	for _, r := range members {
		if _, ok := slices.BinarySearch(seeds, r); !ok {
			nonSeeds = append(nonSeeds, r)
		}
	}
	dNon := make([]float64, len(nonSeeds))
	for i, r := range nonSeeds {
		dNon[i] = frames.Bhattacharyya(hists[r], mean)
	}

	mSeed := Mean(dSeed)
	threshold := mSeed + thresholdSigma*StdDev(dSeed)
	if len(dNon) > 0 {
		if mNon := Mean(dNon); mNon > mSeed {
			threshold = (mSeed + mNon) / 2
		}
	}
	threshold = min(max(threshold, minThreshold), maxThreshold)

	return &Training{
		Model: Model{
			Corner:    corner,
			Mean:      mean,
			Threshold: threshold,
			Seeds:     seeds,
		},
		PCA:         pca,
		Projection:  proj,
		Labels:      labels,
		LogoCluster: logoCluster,
	}, nil
}
