// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package framestest provides a deterministic in-memory frame source that
// renders a corner logo during "program" time and varied content otherwise.
package framestest

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/frames"
)

// ErrOpen is returned by Open when Synthetic.FailOpen is set.
var ErrOpen = errors.New("synthetic: open failed")

// Synthetic renders Width x Height frames. When LogoAt reports true a solid
// logo (Logo color with a white inner square) covers the corner region of
// LogoPct of the width; otherwise the whole frame shows a hue derived from
// the second being rendered.
type Synthetic struct {
	Width, Height int
	Corner        frames.Corner
	LogoPct       float64
	Logo          color.RGBA
	LogoAt        func(offsetSec float64) bool
	FailAt        func(offsetSec float64) bool
	FailOpen      bool

	opened atomic.Int32
	mu     sync.Mutex
	calls  []float64
}

// NewSynthetic returns a 320x180 source with a blue top-left logo.
func NewSynthetic(logoAt func(float64) bool) *Synthetic {
	return &Synthetic{
		Width:   320,
		Height:  180,
		Corner:  frames.TopLeft,
		LogoPct: 0.15,
		Logo:    color.RGBA{R: 20, G: 60, B: 220, A: 255},
		LogoAt:  logoAt,
	}
}

// Backend implements frames.Source.
func (s *Synthetic) Backend() string { return "synthetic" }

// Open implements frames.Source.
func (s *Synthetic) Open(ctx context.Context) (frames.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.FailOpen {
		return nil, ErrOpen
	}
	s.opened.Add(1)
	return &session{src: s}, nil
}

// Opened reports how many sessions were opened.
func (s *Synthetic) Opened() int { return int(s.opened.Load()) }

// Calls returns a copy of every requested offset, in request order.
func (s *Synthetic) Calls() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.calls...)
}

// Render draws the frame shown at offsetSec.
func (s *Synthetic) Render(offsetSec float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	bg := contentColor(int(offsetSec))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = bg.R, bg.G, bg.B, 255
	}
	if s.LogoAt == nil || !s.LogoAt(offsetSec) {
		return img
	}
	rect := frames.ROIRect(img.Bounds(), s.Corner, s.LogoPct)
	inner := rect.Inset(rect.Dx() / 4)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := s.Logo
			if (image.Point{X: x, Y: y}).In(inner) {
				c = color.RGBA{R: 250, G: 250, B: 250, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// contentColor cycles through saturated hues so that consecutive seconds
// of "ad" content look different from each other and from the logo.
func contentColor(sec int) color.RGBA {
	palette := []color.RGBA{
		{R: 230, G: 40, B: 40, A: 255},
		{R: 40, G: 200, B: 60, A: 255},
		{R: 240, G: 220, B: 30, A: 255},
		{R: 200, G: 40, B: 200, A: 255},
		{R: 30, G: 210, B: 210, A: 255},
		{R: 250, G: 140, B: 20, A: 255},
		{R: 90, G: 90, B: 90, A: 255},
	}
	return palette[(sec%len(palette)+len(palette))%len(palette)]
}

type session struct {
	src *Synthetic
}

func (s *session) FrameAt(ctx context.Context, offsetSec float64) (image.Image, error) {
	s.src.mu.Lock()
	s.src.calls = append(s.src.calls, offsetSec)
	s.src.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &faults.DecodeError{OffsetSec: offsetSec, Err: err}
	}
	if s.src.FailAt != nil && s.src.FailAt(offsetSec) {
		return nil, &faults.DecodeError{OffsetSec: offsetSec, Err: errors.New("synthetic: unreadable")}
	}
	return s.src.Render(offsetSec), nil
}

func (s *session) Close() error { return nil }
