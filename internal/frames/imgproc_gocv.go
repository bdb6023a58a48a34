// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build gocv

package frames

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// rgbaMat wraps img as a 4-channel Mat in R,G,B,A byte order.
func rgbaMat(img image.Image) (gocv.Mat, error) {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	if b.Empty() {
		return gocv.Mat{}, fmt.Errorf("empty image %v", b)
	}
	if rgba.Stride != b.Dx()*4 {
		rgba = Crop(rgba, b)
	}
	return gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
}

// BGRMat converts img to the 3-channel BGR layout OpenCV operates on.
func BGRMat(img image.Image) (gocv.Mat, error) {
	m, err := rgbaMat(img)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer m.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(m, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

// Histogram computes the L1-normalised joint HSV histogram of img. Regions
// larger than 64x64 are first area-downscaled; only pixels inside the
// centered circle of radius round(0.40*min(w,h)) are counted.
func Histogram(img image.Image) []float64 {
	hist := make([]float64, HistSize)
	bgr, err := BGRMat(img)
	if err != nil {
		return hist
	}
	defer bgr.Close()

	src := bgr
	if w, h, ok := histTarget(bgr.Cols(), bgr.Rows()); ok {
		small := gocv.NewMat()
		defer small.Close()
		gocv.Resize(bgr, &small, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
		src = small
	}
	w, h := src.Cols(), src.Rows()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(src, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.Zeros(h, w, gocv.MatTypeCV8U)
	defer mask.Close()
	gocv.Circle(&mask, image.Pt(w/2, h/2), maskRadius(w, h), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)

	counts := gocv.NewMat()
	defer counts.Close()
	gocv.CalcHist([]gocv.Mat{hsv}, []int{0, 1, 2}, mask, &counts,
		[]int{HistBins, HistBins, HistBins}, []float64{0, 180, 0, 256, 0, 256}, false)

	data, err := counts.DataPtrFloat32()
	if err != nil {
		return hist
	}
	var total float64
	for i := 0; i < HistSize && i < len(data); i++ {
		hist[i] = float64(data[i])
		total += hist[i]
	}
	if total > 0 {
		for i := range hist {
			hist[i] /= total
		}
	}
	return hist
}

func histMat(h []float64) gocv.Mat {
	m := gocv.NewMatWithSize(1, len(h), gocv.MatTypeCV32F)
	for i, v := range h {
		m.SetFloatAt(0, i, float32(v))
	}
	return m
}

// Bhattacharyya returns the Bhattacharyya distance between two histograms.
// It is 0 for identical distributions and 1 for disjoint ones.
func Bhattacharyya(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 1
	}
	ma := histMat(a[:n])
	defer ma.Close()
	mb := histMat(b[:n])
	defer mb.Close()
	return float64(gocv.CompareHist(ma, mb, gocv.HistCmpBhattacharya))
}

// ResizeArea downscales src to w x h with OpenCV's area interpolation.
func ResizeArea(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	m, err := rgbaMat(src)
	if err != nil {
		return dst
	}
	defer m.Close()

	out := gocv.NewMat()
	defer out.Close()
	gocv.Resize(m, &out, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
	copy(dst.Pix, out.ToBytes())
	return dst
}
