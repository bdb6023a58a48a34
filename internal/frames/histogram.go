// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package frames

import "math"

const (
	// HistBins is the per-channel bin count of the joint H/S/V histogram.
	HistBins = 8
	// HistSize is the flattened histogram length (8*8*8).
	HistSize = HistBins * HistBins * HistBins

	resizeTarget  = 64
	maskRadiusPct = 0.40
)

// maskRadius returns the radius of the centered circle whose pixels
// contribute to a w x h histogram.
func maskRadius(w, h int) int {
	return max(int(math.Round(maskRadiusPct*float64(min(w, h)))), 1)
}

// histTarget returns the size a region is area-downscaled to before binning.
func histTarget(w, h int) (int, int, bool) {
	if w > resizeTarget || h > resizeTarget {
		return min(w, resizeTarget), min(h, resizeTarget), true
	}
	return w, h, false
}

// RGBToHSV converts an 8-bit RGB triple to 8-bit HSV with H in [0,180).
func RGBToHSV(r, g, b uint8) (h, s, v uint8) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	maxc := math.Max(rf, math.Max(gf, bf))
	minc := math.Min(rf, math.Min(gf, bf))
	diff := maxc - minc

	v = uint8(maxc)
	if maxc > 0 {
		s = uint8(math.Min(255, math.Round(diff*255/maxc)))
	}
	if diff == 0 {
		return 0, s, v
	}

	var hue float64
	switch maxc {
	case rf:
		hue = 60 * (gf - bf) / diff
	case gf:
		hue = 120 + 60*(bf-rf)/diff
	default:
		hue = 240 + 60*(rf-gf)/diff
	}
	if hue < 0 {
		hue += 360
	}
	hv := math.Round(hue / 2)
	if hv >= 180 {
		hv -= 180
	}
	return uint8(hv), s, v
}
