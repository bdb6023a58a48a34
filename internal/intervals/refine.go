// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package intervals

import "math"

// Edge identifies which boundary a probe window serves.
type Edge int

const (
	StartEdge Edge = iota
	EndEdge
)

func (e Edge) String() string {
	if e == EndEdge {
		return "end"
	}
	return "start"
}

// Probe is one refinement sample.
type Probe struct {
	Interval  int
	Edge      Edge
	Pos       int
	OffsetSec float64
}

type window struct {
	times []float64
	probe []int // index into Plan.Probes
}

// Plan lists every probe of a refinement pass, flattened in interval order.
type Plan struct {
	Probes []Probe
	starts []window
	ends   []window
}

// WindowTimes returns the offsets max(0, x-span), +step, ... up to
// min(total, x), inclusive within 1e-9.
func WindowTimes(x, total, span, step float64) []float64 {
	a := math.Max(0, x-span)
	b := math.Min(total, x)
	var out []float64
	if step <= 0 {
		return out
	}
	for k := 0; ; k++ {
		t := a + float64(k)*step
		if t > b+1e-9 {
			break
		}
		out = append(out, t)
	}
	return out
}

// PlanRefinement builds the probe windows preceding each interval's start
// and end.
func PlanRefinement(ivs []Interval, total, span, step float64) Plan {
	p := Plan{
		starts: make([]window, len(ivs)),
		ends:   make([]window, len(ivs)),
	}
	add := func(w *window, idx int, edge Edge, x float64) {
		for pos, t := range WindowTimes(x, total, span, step) {
			w.times = append(w.times, t)
			w.probe = append(w.probe, len(p.Probes))
			p.Probes = append(p.Probes, Probe{Interval: idx, Edge: edge, Pos: pos, OffsetSec: t})
		}
	}
	for i, iv := range ivs {
		add(&p.starts[i], i, StartEdge, iv.StartSec)
		add(&p.ends[i], i, EndEdge, iv.EndSec)
	}
	return p
}

// Offsets returns the probe times in plan order.
func (p Plan) Offsets() []float64 {
	out := make([]float64, len(p.Probes))
	for i, pr := range p.Probes {
		out[i] = pr.OffsetSec
	}
	return out
}

// Adjustment records the outcome of refining one interval.
type Adjustment struct {
	Index    int
	Coarse   Interval
	Refined  Interval
	Reverted bool
}

// Changed reports whether either boundary moved.
func (a Adjustment) Changed() bool { return a.Coarse != a.Refined }

// Resolve applies probe outcomes (present[i] for Probes[i]) to ivs in
// place. The start moves to the first window time where the logo goes
// from present to absent, or to the window's first time when the logo is
// already absent there. The end moves to the first window time with the
// logo present. Boundaries without a flip keep their coarse value; a
// result that is inverted or shorter than minAdSec reverts to coarse.
func (p Plan) Resolve(ivs []Interval, present []bool, minAdSec float64) []Adjustment {
	adj := make([]Adjustment, len(ivs))
	for i := range ivs {
		coarse := ivs[i]
		start, end := coarse.StartSec, coarse.EndSec

		if sw := p.starts[i]; len(sw.times) > 0 {
			if !present[sw.probe[0]] {
				start = sw.times[0]
			} else {
				for k := 1; k < len(sw.times); k++ {
					if present[sw.probe[k-1]] && !present[sw.probe[k]] {
						start = sw.times[k]
						break
					}
				}
			}
		}
		ew := p.ends[i]
		for k := range ew.times {
			if present[ew.probe[k]] {
				end = ew.times[k]
				break
			}
		}

		a := Adjustment{Index: i, Coarse: coarse, Refined: Interval{StartSec: start, EndSec: end}}
		if end <= start || end-start < minAdSec {
			a.Refined = coarse
			a.Reverted = true
		}
		ivs[i] = a.Refined
		adj[i] = a
	}
	return adj
}
