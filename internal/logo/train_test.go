// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package logo

import (
	"testing"

	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/frames"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logoHist(i int) []float64 {
	h := make([]float64, frames.HistSize)
	a := 0.8 + 0.002*float64(i%5)
	h[10] = a
	h[11] = 1 - a
	return h
}

func contentHist(i int) []float64 {
	h := make([]float64, frames.HistSize)
	h[100+(i*37)%400] = 1
	return h
}

// trainingSet returns 70 logo-like histograms followed by 30 distinct
// content histograms.
func trainingSet() [][]float64 {
	var hists [][]float64
	for i := 0; i < 70; i++ {
		hists = append(hists, logoHist(i))
	}
	for i := 0; i < 30; i++ {
		hists = append(hists, contentHist(i))
	}
	return hists
}

func TestTrainSelectsDominantCluster(t *testing.T) {
	hists := trainingSet()
	tr, err := Train(hists, frames.TopRight, 2)
	require.NoError(t, err)

	m := tr.Model
	assert.Equal(t, frames.TopRight, m.Corner)
	assert.GreaterOrEqual(t, m.Threshold, 0.05)
	assert.LessOrEqual(t, m.Threshold, 0.95)
	require.NotEmpty(t, m.Seeds)
	for _, s := range m.Seeds {
		assert.Less(t, s, 70, "seed %d is a content sample", s)
	}
	assert.True(t, m.IsSeed(m.Seeds[0]))
	assert.False(t, m.IsSeed(99))

	for i, h := range hists {
		d := m.Distance(h)
		if i < 70 {
			assert.Less(t, d, m.Threshold, "logo sample %d", i)
		} else {
			assert.Greater(t, d, m.Threshold, "content sample %d", i)
		}
	}
	assert.Len(t, tr.Projection, len(hists))
	assert.Len(t, tr.Labels, len(hists))
	assert.Equal(t, tr.Labels[0], tr.LogoCluster)
}

func TestTrainIsDeterministic(t *testing.T) {
	a, err := Train(trainingSet(), frames.TopLeft, 2)
	require.NoError(t, err)
	b, err := Train(trainingSet(), frames.TopLeft, 2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTrainSmallClusterKeepsAllMembersAsSeeds(t *testing.T) {
	hists := [][]float64{logoHist(0), logoHist(1), logoHist(2), logoHist(3), contentHist(0), contentHist(1)}
	tr, err := Train(hists, frames.TopLeft, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, tr.Model.Seeds)
}

func TestTrainRejectsTooFewSamples(t *testing.T) {
	_, err := Train([][]float64{logoHist(0), logoHist(1)}, frames.TopLeft, 2)
	assert.ErrorIs(t, err, faults.ErrInsufficientSamples)

	_, err = Train(trainingSet(), frames.TopLeft, 1)
	assert.ErrorIs(t, err, faults.ErrConfiguration)
}
