// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build gocv

package classify

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/ManuGH/adscan/internal/frames"
)

func grayMat(g *Gray) (gocv.Mat, error) {
	return gocv.NewMatFromBytes(g.H, g.W, gocv.MatTypeCV8U, g.Pix)
}

func grayFromMat(m gocv.Mat) *Gray {
	out := newGray(m.Cols(), m.Rows())
	copy(out.Pix, m.ToBytes())
	return out
}

// apply runs op on g and copies the single-channel result back.
func apply(g *Gray, op func(src gocv.Mat, dst *gocv.Mat)) *Gray {
	if len(g.Pix) == 0 {
		return newGray(g.W, g.H)
	}
	src, err := grayMat(g)
	if err != nil {
		return newGray(g.W, g.H)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	op(src, &dst)
	return grayFromMat(dst)
}

// ToGray converts img with BT.601 luma weights.
func ToGray(img image.Image) *Gray {
	b := img.Bounds()
	bgr, err := frames.BGRMat(img)
	if err != nil {
		return newGray(b.Dx(), b.Dy())
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)
	return grayFromMat(gray)
}

// Blur3 applies the 3x3 Gaussian ([1/4 1/2 1/4] separable) with reflect-101
// borders.
func Blur3(g *Gray) *Gray {
	return apply(g, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.GaussianBlur(src, dst, image.Pt(3, 3), 0, 0, gocv.BorderReflect101)
	})
}

// Otsu returns the threshold maximising between-class variance.
func Otsu(g *Gray) int {
	var t float32
	apply(g, func(src gocv.Mat, dst *gocv.Mat) {
		t = gocv.Threshold(src, dst, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)
	})
	return int(t)
}

// ThresholdInv sets pixels at or below t to 255 and the rest to 0.
func ThresholdInv(g *Gray, t int) *Gray {
	return apply(g, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Threshold(src, dst, float32(t), 255, gocv.ThresholdBinaryInv)
	})
}

// CloseOpen runs a morphological close followed by an open with a
// size x size rectangle.
func CloseOpen(g *Gray, size int) *Gray {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(size, size))
	defer kernel.Close()

	return apply(g, func(src gocv.Mat, dst *gocv.Mat) {
		closed := gocv.NewMat()
		defer closed.Close()
		gocv.MorphologyEx(src, &closed, gocv.MorphClose, kernel)
		gocv.MorphologyEx(closed, dst, gocv.MorphOpen, kernel)
	})
}

// LargestComponent returns the bounding box of the largest 8-connected
// foreground region, the lowest label on ties.
func LargestComponent(mask *Gray) (Rect, bool) {
	if len(mask.Pix) == 0 {
		return Rect{}, false
	}
	src, err := grayMat(mask)
	if err != nil {
		return Rect{}, false
	}
	defer src.Close()

	labels, stats, centroids := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer labels.Close()
	defer stats.Close()
	defer centroids.Close()

	n := gocv.ConnectedComponentsWithStats(src, &labels, &stats, &centroids)
	best, bestArea := 0, int32(0)
	for l := 1; l < n; l++ {
		if a := stats.GetIntAt(l, int(gocv.CCStatArea)); a > bestArea {
			best, bestArea = l, a
		}
	}
	if best == 0 {
		return Rect{}, false
	}
	return Rect{
		X: int(stats.GetIntAt(best, int(gocv.CCStatLeft))),
		Y: int(stats.GetIntAt(best, int(gocv.CCStatTop))),
		W: int(stats.GetIntAt(best, int(gocv.CCStatWidth))),
		H: int(stats.GetIntAt(best, int(gocv.CCStatHeight))),
	}, true
}

// NCC is the zero-mean normalised cross-correlation (TM_CCOEFF_NORMED) of
// two equally sized images, 0 when either is constant.
func NCC(a, b *Gray) float64 {
	if a.W != b.W || a.H != b.H || len(a.Pix) == 0 {
		return 0
	}
	am, err := grayMat(a)
	if err != nil {
		return 0
	}
	defer am.Close()
	bm, err := grayMat(b)
	if err != nil {
		return 0
	}
	defer bm.Close()

	result, mask := gocv.NewMat(), gocv.NewMat()
	defer result.Close()
	defer mask.Close()
	gocv.MatchTemplate(am, bm, &result, gocv.TmCcoeffNormed, mask)

	v := float64(result.GetFloatAt(0, 0))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
