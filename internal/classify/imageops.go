// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classify

import (
	"math"
	"slices"
)

// Gray is an 8-bit single-channel image stored row-major.
type Gray struct {
	W, H int
	Pix  []uint8
}

func newGray(w, h int) *Gray {
	return &Gray{W: w, H: h, Pix: make([]uint8, w*h)}
}

func (g *Gray) at(x, y int) uint8 { return g.Pix[y*g.W+x] }

// Sub copies the rectangle r out of g. r must lie inside g.
func (g *Gray) Sub(r Rect) *Gray {
	out := newGray(r.W, r.H)
	for y := 0; y < r.H; y++ {
		copy(out.Pix[y*r.W:(y+1)*r.W], g.Pix[(r.Y+y)*g.W+r.X:(r.Y+y)*g.W+r.X+r.W])
	}
	return out
}

func clampByte(v float64) uint8 {
	return uint8(max(0, min(255, math.Round(v))))
}

// PixelStats returns the per-pixel median (element n/2 of the sorted
// values) and population standard deviation across images of equal size.
func PixelStats(imgs []*Gray) (*Gray, []float64) {
	w, h := imgs[0].W, imgs[0].H
	median := newGray(w, h)
	stddev := make([]float64, w*h)
	vals := make([]uint8, len(imgs))
	n := float64(len(imgs))
	for p := 0; p < w*h; p++ {
		var sum, sum2 float64
		for i, img := range imgs {
			v := img.Pix[p]
			vals[i] = v
			sum += float64(v)
			sum2 += float64(v) * float64(v)
		}
		slices.Sort(vals)
		median.Pix[p] = vals[len(vals)/2]
		mean := sum / n
		stddev[p] = math.Sqrt(max(0, sum2/n-mean*mean))
	}
	return median, stddev
}

// NormalizeMinMax scales v linearly onto 0..255. A constant input maps to 0.
func NormalizeMinMax(v []float64, w, h int) *Gray {
	out := newGray(w, h)
	lo, hi := slices.Min(v), slices.Max(v)
	if hi-lo <= 1e-12 {
		return out
	}
	scale := 255 / (hi - lo)
	for i, x := range v {
		out.Pix[i] = clampByte((x - lo) * scale)
	}
	return out
}

// Pad grows r by px on every side, clipped to a w x h image.
func (r Rect) Pad(px, w, h int) Rect {
	x := max(0, r.X-px)
	y := max(0, r.Y-px)
	return Rect{
		X: x,
		Y: y,
		W: min(w-x, r.W+2*px),
		H: min(h-y, r.H+2*px),
	}
}

// Fits reports whether r lies inside a w x h image.
func (r Rect) Fits(w, h int) bool {
	return r.W > 0 && r.H > 0 && r.X >= 0 && r.Y >= 0 && r.X+r.W <= w && r.Y+r.H <= h
}
