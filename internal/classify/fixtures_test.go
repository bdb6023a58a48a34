// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classify

import (
	"testing"

	"github.com/ManuGH/adscan/internal/frames"
	"github.com/ManuGH/adscan/internal/logo"
	"github.com/stretchr/testify/require"
)

const (
	logoSamples    = 70
	contentSamples = 30
)

func logoHistA(a float64) []float64 {
	h := make([]float64, frames.HistSize)
	h[10] = a
	h[11] = 1 - a
	return h
}

func contentHist(i int) []float64 {
	h := make([]float64, frames.HistSize)
	h[100+(i*37)%400] = 1
	return h
}

// clusteredInput has logo samples on five distinct histograms followed by
// distinct one-bin content histograms.
func clusteredInput(t *testing.T) Input {
	t.Helper()
	var hists [][]float64
	for i := 0; i < logoSamples; i++ {
		hists = append(hists, logoHistA(0.8+0.002*float64(i%5)))
	}
	for i := 0; i < contentSamples; i++ {
		hists = append(hists, contentHist(i))
	}
	return fit(t, hists)
}

// spreadInput has every logo sample on its own histogram.
func spreadInput(t *testing.T) Input {
	t.Helper()
	var hists [][]float64
	for i := 0; i < logoSamples; i++ {
		hists = append(hists, logoHistA(0.8+0.0005*float64(i)))
	}
	for i := 0; i < contentSamples; i++ {
		hists = append(hists, contentHist(i))
	}
	return fit(t, hists)
}

func fit(t *testing.T, hists [][]float64) Input {
	t.Helper()
	tr, err := logo.Train(hists, frames.TopLeft, 2)
	require.NoError(t, err)
	return Input{Training: tr, Histograms: hists}
}

func defaultParams(strategy string) Params {
	return Params{
		Strategy:          strategy,
		SmoothWindow:      1,
		EnterMult:         1.25,
		ExitMult:          1.0,
		DBSCANMinPts:      5,
		LOFK:              10,
		LOFThreshold:      1.6,
		KNNK:              10,
		KNNQuantile:       0.95,
		TemplateThreshold: 0,
	}
}
