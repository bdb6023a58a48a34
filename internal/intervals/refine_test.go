// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package intervals

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowTimes(t *testing.T) {
	tests := []struct {
		name  string
		x     float64
		total float64
		want  []float64
	}{
		{"interior", 120, 600, []float64{90, 95, 100, 105, 110, 115, 120}},
		{"clamped at zero", 10, 600, []float64{0, 5, 10}},
		{"clamped at total", 600, 595, []float64{570, 575, 580, 585, 590, 595}},
		{"zero", 0, 600, []float64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WindowTimes(tt.x, tt.total, 30, 5)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("WindowTimes() mismatch (-want +got):\n%s", diff)
			}
		})
	}
	assert.Empty(t, WindowTimes(100, 600, 30, 0))
}

func TestPlanRefinement(t *testing.T) {
	p := PlanRefinement([]Interval{{StartSec: 120, EndSec: 180}, {StartSec: 300, EndSec: 330}}, 600, 30, 5)
	require.Len(t, p.Probes, 28)

	assert.Equal(t, Probe{Interval: 0, Edge: StartEdge, Pos: 0, OffsetSec: 90}, p.Probes[0])
	assert.Equal(t, Probe{Interval: 0, Edge: EndEdge, Pos: 0, OffsetSec: 150}, p.Probes[7])
	assert.Equal(t, Probe{Interval: 1, Edge: EndEdge, Pos: 6, OffsetSec: 330}, p.Probes[27])
	assert.Equal(t, 90.0, p.Offsets()[0])
	assert.Equal(t, "end", EndEdge.String())
}

// outcomes maps window patterns ('P' present) to probe results.
func outcomes(start, end string) []bool {
	out := make([]bool, 0, len(start)+len(end))
	for _, c := range start + end {
		out = append(out, c == 'P')
	}
	return out
}

func TestResolve(t *testing.T) {
	coarse := Interval{StartSec: 120, EndSec: 180}
	tests := []struct {
		name     string
		start    string // 90..120
		end      string // 150..180
		minAd    float64
		want     Interval
		reverted bool
	}{
		{"flip in both windows", "PPPPPAA", "AAAAAPP", 10, Interval{StartSec: 115, EndSec: 175}, false},
		{"already absent at window start", "AAAAAAA", "AAAAAAP", 10, Interval{StartSec: 90, EndSec: 180}, false},
		{"no flips keeps coarse", "PPPPPPP", "AAAAAAA", 10, coarse, false},
		{"too short reverts", "PPPPPAA", "PAAAAAA", 40, coarse, true},
		{"only start moves", "PPPPPAA", "AAAAAAA", 0, Interval{StartSec: 115, EndSec: 180}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ivs := []Interval{coarse}
			p := PlanRefinement(ivs, 600, 30, 5)
			adj := p.Resolve(ivs, outcomes(tt.start, tt.end), tt.minAd)
			require.Len(t, adj, 1)
			assert.Equal(t, tt.want, ivs[0])
			assert.Equal(t, tt.want, adj[0].Refined)
			assert.Equal(t, coarse, adj[0].Coarse)
			assert.Equal(t, tt.reverted, adj[0].Reverted)
		})
	}
}

func TestResolveInvertedReverts(t *testing.T) {
	// Interval shorter than the probe span so the end window reaches
	// before the refined start.
	ivs := []Interval{{StartSec: 100, EndSec: 110}}
	p := PlanRefinement(ivs, 600, 30, 5)
	// start window 70..100 flips at 95, end window 80..110 present at 80.
	res := outcomes("PPPPPAA", "PAAAAAA")
	adj := p.Resolve(ivs, res, 0)
	assert.True(t, adj[0].Reverted)
	assert.False(t, adj[0].Changed())
	assert.Equal(t, Interval{StartSec: 100, EndSec: 110}, ivs[0])
}
