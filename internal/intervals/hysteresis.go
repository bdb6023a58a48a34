// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package intervals converts per-sample logo decisions into ad intervals
// and plans the finer boundary scan around each of them.
package intervals

import (
	"fmt"

	"github.com/ManuGH/adscan/internal/classify"
)

// Interval is an ad window in seconds from the start of the stream.
type Interval struct {
	StartSec float64
	EndSec   float64
}

// Duration returns EndSec - StartSec.
func (iv Interval) Duration() float64 { return iv.EndSec - iv.StartSec }

// Hysteresis configures the two-state machine.
type Hysteresis struct {
	// EnterConsecutive absent samples open an ad.
	EnterConsecutive int
	// ExitConsecutive present samples close it.
	ExitConsecutive int
	MinAdSec        float64
	TotalSec        float64
}

// Detect walks decisions in sample order. An ad opens at the first sample
// of an absent run once the run reaches EnterConsecutive, and closes at the
// first sample of a present run once that run reaches ExitConsecutive. An
// ad still open after the last sample closes at TotalSec. Ads shorter than
// MinAdSec are dropped.
func Detect(times []float64, decisions []classify.Decision, h Hysteresis) ([]Interval, error) {
	if len(times) != len(decisions) {
		return nil, fmt.Errorf("intervals: %d times for %d decisions", len(times), len(decisions))
	}
	enterN := max(1, h.EnterConsecutive)
	exitN := max(1, h.ExitConsecutive)

	var (
		out       []Interval
		inAd      bool
		start     float64
		absentRun int
		runStart  int
		presRun   int
	)
	keep := func(end float64) {
		if end-start >= h.MinAdSec && end > start {
			out = append(out, Interval{StartSec: start, EndSec: end})
		}
	}

	for i, d := range decisions {
		if !inAd {
			if d.Absent {
				if absentRun == 0 {
					runStart = i
				}
				absentRun++
			} else {
				absentRun = 0
			}
			if absentRun >= enterN {
				inAd = true
				start = times[runStart]
				absentRun, presRun = 0, 0
			}
			continue
		}

		if d.Present {
			presRun++
		} else {
			presRun = 0
		}
		if presRun >= exitN {
			inAd = false
			keep(times[i-exitN+1])
			presRun = 0
		}
	}
	if inAd {
		keep(h.TotalSec)
	}
	return out, nil
}
