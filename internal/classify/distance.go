// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classify

import (
	"github.com/ManuGH/adscan/internal/frames"
	"github.com/ManuGH/adscan/internal/logo"
)

// distanceClassifier compares each histogram with the logo mean histogram.
// Smoothed distances at or above enter mark absence, at or below exit mark
// presence.
type distanceClassifier struct {
	model     *logo.Model
	window    int
	enterMult float64
	exitMult  float64
	enter     float64
	exit      float64
	decisions []Decision
}

func newDistance(p Params, in Input) *distanceClassifier {
	m := &in.Training.Model
	c := &distanceClassifier{
		model:     m,
		window:    max(1, p.SmoothWindow),
		enterMult: p.EnterMult,
		exitMult:  p.ExitMult,
		enter:     clamp01(m.Threshold * p.EnterMult),
		exit:      clamp01(m.Threshold * p.ExitMult),
	}

	raw := make([]float64, len(in.Histograms))
	for i, h := range in.Histograms {
		raw[i] = m.Distance(h)
	}
	smooth := Smooth(raw, c.window)

	c.decisions = make([]Decision, len(smooth))
	for i, d := range smooth {
		c.decisions[i] = Decision{Present: d <= c.exit, Absent: d >= c.enter, Score: d}
	}
	return c
}

// Smooth is a centered moving average with half-width window/2, truncated
// at both ends.
func Smooth(v []float64, window int) []float64 {
	half := max(1, window) / 2
	out := make([]float64, len(v))
	for i := range v {
		from := max(0, i-half)
		to := min(len(v)-1, i+half)
		var sum float64
		for j := from; j <= to; j++ {
			sum += v[j]
		}
		out[i] = sum / float64(to-from+1)
	}
	return out
}

func (c *distanceClassifier) Name() string          { return Distance }
func (c *distanceClassifier) Decisions() []Decision { return c.decisions }

func (c *distanceClassifier) Probe(obs frames.Observation) bool {
	return c.model.Distance(obs.Histogram) <= c.exit
}

func (c *distanceClassifier) Detection() Detection {
	return Detection{
		Strategy: Distance,
		Distance: &DistanceReport{
			SmoothWindow:   c.window,
			EnterMult:      c.enterMult,
			ExitMult:       c.exitMult,
			EnterThreshold: c.enter,
			ExitThreshold:  c.exit,
		},
	}
}
