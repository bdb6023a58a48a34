// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build !gocv

package frames

import (
	"image"
	"math"
)

// Histogram computes the L1-normalised joint HSV histogram of img. Regions
// larger than 64x64 are first area-downscaled; only pixels inside the
// centered circle of radius round(0.40*min(w,h)) are counted.
func Histogram(img image.Image) []float64 {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	if w, h, ok := histTarget(b.Dx(), b.Dy()); ok {
		rgba = ResizeArea(rgba, w, h)
		b = rgba.Bounds()
	}

	w, h := b.Dx(), b.Dy()
	hist := make([]float64, HistSize)
	if w == 0 || h == 0 {
		return hist
	}
	r := maskRadius(w, h)
	cx, cy := w/2, h/2
	r2 := r * r

	var total float64
	for y := 0; y < h; y++ {
		dy := y - cy
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w; x++ {
			dx := x - cx
			if dx*dx+dy*dy > r2 {
				continue
			}
			hh, ss, vv := RGBToHSV(row[x*4], row[x*4+1], row[x*4+2])
			hb := int(hh) * HistBins / 180
			sb := int(ss) >> 5
			vb := int(vv) >> 5
			hist[hb*HistBins*HistBins+sb*HistBins+vb]++
			total++
		}
	}
	if total > 0 {
		for i := range hist {
			hist[i] /= total
		}
	}
	return hist
}

// Bhattacharyya returns the Bhattacharyya distance between two histograms:
// sqrt(max(0, 1 - sum(sqrt(a*b)) / sqrt(sum(a)*sum(b)))). It is 0 for
// identical distributions and 1 for disjoint ones.
func Bhattacharyya(a, b []float64) float64 {
	n := min(len(a), len(b))
	var sa, sb, acc float64
	for i := 0; i < n; i++ {
		sa += a[i]
		sb += b[i]
		acc += math.Sqrt(a[i] * b[i])
	}
	scale := 1.0
	if p := sa * sb; p > 1e-300 {
		scale = 1 / math.Sqrt(p)
	}
	return math.Sqrt(math.Max(1-acc*scale, 0))
}

// ResizeArea downscales src to w x h by averaging the source area each
// destination pixel covers, weighting partially covered source pixels.
func ResizeArea(src *image.RGBA, w, h int) *image.RGBA {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if sw == 0 || sh == 0 || w == 0 || h == 0 {
		return dst
	}
	xw := areaWeights(sw, w)
	yw := areaWeights(sh, h)

	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			var acc [4]float64
			var norm float64
			for _, ty := range yw[dy] {
				for _, tx := range xw[dx] {
					wt := ty.w * tx.w
					off := ty.i*src.Stride + tx.i*4
					for c := 0; c < 4; c++ {
						acc[c] += wt * float64(src.Pix[off+c])
					}
					norm += wt
				}
			}
			off := dy*dst.Stride + dx*4
			for c := 0; c < 4; c++ {
				dst.Pix[off+c] = uint8(math.Min(255, math.Round(acc[c]/norm)))
			}
		}
	}
	return dst
}

type tap struct {
	i int
	w float64
}

// areaWeights lists, per destination index, the source indexes and the
// length of the overlap with [d*scale, (d+1)*scale).
func areaWeights(srcLen, dstLen int) [][]tap {
	scale := float64(srcLen) / float64(dstLen)
	out := make([][]tap, dstLen)
	for d := 0; d < dstLen; d++ {
		lo := float64(d) * scale
		hi := lo + scale
		for s := int(math.Floor(lo)); s < srcLen && float64(s) < hi; s++ {
			ov := math.Min(hi, float64(s+1)) - math.Max(lo, float64(s))
			if ov > 1e-9 {
				out[d] = append(out[d], tap{i: s, w: ov})
			}
		}
	}
	return out
}
