// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package intervals

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/adscan/internal/classify"
)

// decisions builds one decision per character: 'P' present, 'A' absent.
func decisions(pattern string) ([]float64, []classify.Decision) {
	times := make([]float64, len(pattern))
	out := make([]classify.Decision, len(pattern))
	for i, c := range pattern {
		times[i] = float64(i) * 2
		out[i] = classify.Decision{Present: c == 'P', Absent: c == 'A'}
	}
	return times, out
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		h       Hysteresis
		want    []Interval
	}{
		{
			name:    "single ad",
			pattern: "PPPPAAAAAPPPP",
			h:       Hysteresis{EnterConsecutive: 3, ExitConsecutive: 3, TotalSec: 26},
			want:    []Interval{{StartSec: 8, EndSec: 18}},
		},
		{
			name:    "blip below enter count",
			pattern: "PPPAAPPPP",
			h:       Hysteresis{EnterConsecutive: 3, ExitConsecutive: 3, TotalSec: 18},
			want:    nil,
		},
		{
			name:    "short present run does not close",
			pattern: "PAAAPPAAAPPP",
			h:       Hysteresis{EnterConsecutive: 2, ExitConsecutive: 3, TotalSec: 24},
			want:    []Interval{{StartSec: 2, EndSec: 18}},
		},
		{
			name:    "open ad closes at total",
			pattern: "PPAAAA",
			h:       Hysteresis{EnterConsecutive: 2, ExitConsecutive: 2, TotalSec: 12},
			want:    []Interval{{StartSec: 4, EndSec: 12}},
		},
		{
			name:    "below minimum duration",
			pattern: "PAAAPPAAAAAAPP",
			h:       Hysteresis{EnterConsecutive: 2, ExitConsecutive: 2, MinAdSec: 8, TotalSec: 28},
			want:    []Interval{{StartSec: 12, EndSec: 24}},
		},
		{
			name:    "all present",
			pattern: "PPPPPP",
			h:       Hysteresis{EnterConsecutive: 1, ExitConsecutive: 1, TotalSec: 12},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times, d := decisions(tt.pattern)
			got, err := Detect(times, d, tt.h)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Detect() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetectLengthMismatch(t *testing.T) {
	_, err := Detect([]float64{0, 1}, []classify.Decision{{Present: true}}, Hysteresis{})
	require.Error(t, err)
}
