// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package frames

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// Observation is the per-frame feature: the corner histogram and, when
// capture is enabled, the PNG-encoded corner region.
type Observation struct {
	Histogram []float64
	ROI       []byte
}

// Extractor turns decoded frames into observations.
type Extractor struct {
	Corner     Corner
	WidthPct   float64
	CaptureROI bool
}

// Extract crops the corner region of img and computes its histogram.
func (e Extractor) Extract(img image.Image) (Observation, error) {
	if img == nil || img.Bounds().Empty() {
		return Observation{}, fmt.Errorf("empty frame")
	}
	rect := ROIRect(img.Bounds(), e.Corner, e.WidthPct)
	roi := Crop(img, rect)

	obs := Observation{Histogram: Histogram(roi)}
	if e.CaptureROI {
		var buf bytes.Buffer
		if err := png.Encode(&buf, roi); err != nil {
			return Observation{}, fmt.Errorf("encode roi: %w", err)
		}
		obs.ROI = buf.Bytes()
	}
	return obs, nil
}

// DecodeROI decodes a captured PNG region.
func DecodeROI(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode roi: %w", err)
	}
	return img, nil
}
