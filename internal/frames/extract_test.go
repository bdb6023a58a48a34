// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package frames

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorCapturesROI(t *testing.T) {
	img := solid(200, 100, color.RGBA{R: 255, A: 255})
	for y := 0; y < 20; y++ {
		for x := 180; x < 200; x++ {
			img.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
		}
	}

	obs, err := Extractor{Corner: TopRight, WidthPct: 0.1, CaptureROI: true}.Extract(img)
	require.NoError(t, err)
	require.NotEmpty(t, obs.ROI)

	roi, err := DecodeROI(obs.ROI)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 20), roi.Bounds())
	// pure blue: H=120 -> bin 5
	assert.InDelta(t, 1.0, obs.Histogram[5*64+7*8+7], 1e-6)
}

func TestExtractorWithoutCapture(t *testing.T) {
	obs, err := Extractor{Corner: BottomLeft, WidthPct: 0.2}.Extract(solid(50, 50, color.RGBA{A: 255}))
	require.NoError(t, err)
	assert.Nil(t, obs.ROI)
	assert.Len(t, obs.Histogram, HistSize)
}

func TestExtractorRejectsEmptyFrame(t *testing.T) {
	_, err := Extractor{}.Extract(image.NewRGBA(image.Rectangle{}))
	assert.Error(t, err)
}

func TestDecodeROIInvalid(t *testing.T) {
	_, err := DecodeROI([]byte("not a png"))
	assert.Error(t, err)
}
