// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build !gocv

package classify

import (
	"image"
	"image/color"
	"math"
)

// ToGray converts img with BT.601 luma weights.
func ToGray(img image.Image) *Gray {
	b := img.Bounds()
	g := newGray(b.Dx(), b.Dy())
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			v := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			g.Pix[y*g.W+x] = clampByte(v)
		}
	}
	return g
}

// reflect101 maps an out-of-range index the way "gfedcb|abcdefgh|gfedcba"
// borders do.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// Blur3 applies the separable [1/4 1/2 1/4] kernel with reflect-101
// borders.
func Blur3(g *Gray) *Gray {
	k := [3]float64{0.25, 0.5, 0.25}
	tmp := make([]float64, len(g.Pix))
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			var s float64
			for d := -1; d <= 1; d++ {
				s += k[d+1] * float64(g.at(reflect101(x+d, g.W), y))
			}
			tmp[y*g.W+x] = s
		}
	}
	out := newGray(g.W, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			var s float64
			for d := -1; d <= 1; d++ {
				s += k[d+1] * tmp[reflect101(y+d, g.H)*g.W+x]
			}
			out.Pix[y*g.W+x] = clampByte(s)
		}
	}
	return out
}

// Otsu returns the threshold maximising between-class variance.
func Otsu(g *Gray) int {
	var hist [256]float64
	for _, v := range g.Pix {
		hist[v]++
	}
	total := float64(len(g.Pix))
	var mu float64
	for i := range hist {
		hist[i] /= total
		mu += float64(i) * hist[i]
	}

	const eps = 1.1920929e-07
	var q1, mu1, bestVar float64
	best := 0
	for i := 0; i < 256; i++ {
		p := hist[i]
		q1next := q1 + p
		mu1 = mu1*q1 + float64(i)*p
		q1 = q1next
		if q1 > 0 {
			mu1 /= q1
		}
		q2 := 1 - q1
		if min(q1, q2) < eps || max(q1, q2) > 1-eps {
			continue
		}
		mu2 := (mu - q1*mu1) / q2
		v := q1 * q2 * (mu1 - mu2) * (mu1 - mu2)
		if v > bestVar {
			bestVar = v
			best = i
		}
	}
	return best
}

// ThresholdInv sets pixels at or below t to 255 and the rest to 0.
func ThresholdInv(g *Gray, t int) *Gray {
	out := newGray(g.W, g.H)
	for i, v := range g.Pix {
		if int(v) <= t {
			out.Pix[i] = 255
		}
	}
	return out
}

// morph applies a size x size rectangular min (erode) or max (dilate)
// filter. Pixels outside the image are ignored.
func morph(g *Gray, size int, dilate bool) *Gray {
	r := size / 2
	out := newGray(g.W, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			acc := uint8(255)
			if dilate {
				acc = 0
			}
			for dy := -r; dy <= r; dy++ {
				yy := y + dy
				if yy < 0 || yy >= g.H {
					continue
				}
				for dx := -r; dx <= r; dx++ {
					xx := x + dx
					if xx < 0 || xx >= g.W {
						continue
					}
					v := g.at(xx, yy)
					if dilate {
						acc = max(acc, v)
					} else {
						acc = min(acc, v)
					}
				}
			}
			out.Pix[y*g.W+x] = acc
		}
	}
	return out
}

// CloseOpen runs a morphological close followed by an open.
func CloseOpen(g *Gray, size int) *Gray {
	closed := morph(morph(g, size, true), size, false)
	return morph(morph(closed, size, false), size, true)
}

// LargestComponent returns the bounding box of the largest 8-connected
// foreground region, the first one in scan order on ties.
func LargestComponent(mask *Gray) (Rect, bool) {
	seen := make([]bool, len(mask.Pix))
	var best Rect
	bestSize := 0
	stack := make([]int, 0, 64)
	for start, v := range mask.Pix {
		if v == 0 || seen[start] {
			continue
		}
		seen[start] = true
		stack = append(stack[:0], start)
		size := 0
		minX, minY, maxX, maxY := mask.W, mask.H, -1, -1
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			x, y := p%mask.W, p/mask.W
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx < 0 || yy < 0 || xx >= mask.W || yy >= mask.H {
						continue
					}
					q := yy*mask.W + xx
					if mask.Pix[q] != 0 && !seen[q] {
						seen[q] = true
						stack = append(stack, q)
					}
				}
			}
		}
		if size > bestSize {
			bestSize = size
			best = Rect{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
		}
	}
	return best, bestSize > 0
}

// NCC is the zero-mean normalised cross-correlation of two equally sized
// images, 0 when either is constant.
func NCC(a, b *Gray) float64 {
	if len(a.Pix) != len(b.Pix) || len(a.Pix) == 0 {
		return 0
	}
	n := float64(len(a.Pix))
	var ma, mb float64
	for i := range a.Pix {
		ma += float64(a.Pix[i])
		mb += float64(b.Pix[i])
	}
	ma /= n
	mb /= n
	var num, da, db float64
	for i := range a.Pix {
		x := float64(a.Pix[i]) - ma
		y := float64(b.Pix[i]) - mb
		num += x * y
		da += x * x
		db += y * y
	}
	den := math.Sqrt(da * db)
	if den == 0 {
		return 0
	}
	return num / den
}
