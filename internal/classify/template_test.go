// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classify

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ManuGH/adscan/internal/frames"
	"github.com/ManuGH/adscan/internal/logo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	roiSide   = 48
	logoMin   = 8
	logoMax   = 31 // inclusive
	logoInset = 3
)

func noiseBit(i, bx, by int) bool {
	h := uint32(i)*2654435761 ^ uint32(bx)*40503 ^ uint32(by)*2246822519
	h ^= h >> 15
	h *= 2246822519
	h ^= h >> 13
	return h&1 == 1
}

// cornerPNG renders a 48x48 corner: 4x4 binary noise blocks that change
// every frame, and a 24x24 framed logo. Ad frames draw the logo inverted
// and at lower contrast.
func cornerPNG(t *testing.T, i int, ad bool) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, roiSide, roiSide))
	for y := 0; y < roiSide; y++ {
		for x := 0; x < roiSide; x++ {
			v := uint8(38)
			if noiseBit(i, x/4, y/4) {
				v = 218
			}
			if x >= logoMin && x <= logoMax && y >= logoMin && y <= logoMax {
				inner := x >= logoMin+logoInset && x <= logoMax-logoInset && y >= logoMin+logoInset && y <= logoMax-logoInset
				switch {
				case inner && ad:
					v = 160
				case inner:
					v = 30
				case ad:
					v = 100
				default:
					v = 230
				}
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func isAdFrame(i int) bool { return i == 13 || i == 27 }

func templateInput(t *testing.T) Input {
	t.Helper()
	const n = 40
	in := Input{
		Training:   &logo.Training{},
		Histograms: make([][]float64, n),
		ROIs:       make([][]byte, n),
	}
	for i := 0; i < n; i++ {
		in.ROIs[i] = cornerPNG(t, i, isAdFrame(i))
		in.Training.Projection = append(in.Training.Projection, logo.Point{float64(i % 7), float64(i % 5)})
	}
	return in
}

func TestTemplateStrategy(t *testing.T) {
	p := defaultParams(Template)
	p.TemplateThreshold = 0.5
	in := templateInput(t)
	c, err := New(p, in)
	require.NoError(t, err)
	assert.Equal(t, Template, c.Name())

	det := c.Detection()
	require.NotNil(t, det.Template)
	sub := det.Template.LogoSubRect
	assert.True(t, sub.Fits(roiSide, roiSide))
	center := (logoMin + logoMax) / 2
	assert.True(t, sub.X <= center && center < sub.X+sub.W, "sub rect %+v misses the logo", sub)
	assert.True(t, sub.Y <= center && center < sub.Y+sub.H, "sub rect %+v misses the logo", sub)
	assert.Equal(t, 0.5, det.Template.NCCThreshold)
	require.NotNil(t, det.Template.MCD)
	assert.Equal(t, 30, det.Template.MCD.SupportSize)

	for i, d := range c.Decisions() {
		if isAdFrame(i) {
			assert.True(t, d.Absent, "frame %d ncc=%v", i, d.Score)
		} else {
			assert.True(t, d.Present, "frame %d ncc=%v", i, d.Score)
		}
	}

	assert.True(t, c.Probe(frames.Observation{ROI: cornerPNG(t, 100, false)}))
	assert.False(t, c.Probe(frames.Observation{ROI: cornerPNG(t, 101, true)}))
	assert.False(t, c.Probe(frames.Observation{}))

	small := image.NewGray(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, small))
	assert.False(t, c.Probe(frames.Observation{ROI: buf.Bytes()}))

	tc, ok := c.(*templateClassifier)
	require.True(t, ok)
	assert.Len(t, tc.Mahalanobis(), 40)
}

func TestTemplateRequiresROIs(t *testing.T) {
	in := templateInput(t)
	in.ROIs[3] = nil
	_, err := New(defaultParams(Template), in)
	assert.Error(t, err)

	in = templateInput(t)
	in.ROIs = in.ROIs[:5]
	_, err = New(defaultParams(Template), in)
	assert.Error(t, err)
}

func TestFitMCDIgnoresOutliers(t *testing.T) {
	var pts []logo.Point
	for i := 0; i < 20; i++ {
		pts = append(pts, logo.Point{float64(i%5) * 0.1, float64(i/5) * 0.1})
	}
	pts = append(pts, logo.Point{50, 50}, logo.Point{-40, 60})

	m := FitMCD(pts, 0.75)
	assert.Len(t, m.Support, 17)
	assert.NotContains(t, m.Support, 20)
	assert.NotContains(t, m.Support, 21)
	assert.InDelta(t, 0.2, m.Center[0], 0.1)
	assert.InDelta(t, 0.15, m.Center[1], 0.1)

	d := m.Distances(pts)
	assert.Greater(t, d[20], 10*d[0])

	assert.Equal(t, FitMCD(pts, 0.75), FitMCD(pts, 0.75))
}
