// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build gocv

package frames

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/metrics"
	"gocv.io/x/gocv"
	"golang.org/x/time/rate"
)

// GoCVSource decodes frames in-process through OpenCV. Each session owns
// one VideoCapture and seeks by position in milliseconds.
type GoCVSource struct {
	locator string
	limiter *rate.Limiter
}

// NewGoCVSource creates an OpenCV-backed source.
func NewGoCVSource(locator string, opts Options) (Source, error) {
	return &GoCVSource{locator: locator, limiter: opts.Limiter}, nil
}

// Backend implements Source.
func (s *GoCVSource) Backend() string { return "gocv" }

// Open implements Source.
func (s *GoCVSource) Open(ctx context.Context) (Session, error) {
	if err := waitOpen(ctx, s.limiter); err != nil {
		return nil, err
	}
	vc, err := gocv.OpenVideoCapture(s.locator)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("open capture: %s not opened", s.locator)
	}
	return &gocvSession{vc: vc, mat: gocv.NewMat()}, nil
}

type gocvSession struct {
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

// FrameAt implements Session.
func (s *gocvSession) FrameAt(ctx context.Context, offsetSec float64) (image.Image, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveFrameFetch("gocv", time.Since(start))
	}()
	if err := ctx.Err(); err != nil {
		return nil, &faults.DecodeError{OffsetSec: offsetSec, Err: err}
	}

	s.vc.Set(gocv.VideoCapturePosMsec, offsetSec*1000)
	if ok := s.vc.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, &faults.DecodeError{OffsetSec: offsetSec, Err: fmt.Errorf("no frame")}
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, &faults.DecodeError{OffsetSec: offsetSec, Err: err}
	}
	return img, nil
}

// Close implements Session.
func (s *gocvSession) Close() error {
	_ = s.mat.Close()
	return s.vc.Close()
}
