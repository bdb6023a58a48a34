// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package frames retrieves video frames at arbitrary offsets and reduces
// the logo corner of each frame to a color histogram.
package frames

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Source opens independent decode sessions on one media locator. Each
// sampling worker opens its own session.
type Source interface {
	Open(ctx context.Context) (Session, error)
	Backend() string
}

// Session returns decoded frames at offsets (seconds from the start of the
// stream). A failing FrameAt must return a *faults.DecodeError so callers
// can tell single-frame failures from fatal ones.
type Session interface {
	FrameAt(ctx context.Context, offsetSec float64) (image.Image, error)
	Close() error
}

// Options configures the frame backends.
type Options struct {
	Backend   string // ffmpeg | gocv
	FFmpegBin string
	Timeout   time.Duration
	// Limiter throttles session opens across workers. Nil disables it.
	Limiter *rate.Limiter
	Logger  zerolog.Logger
}

// NewOpenLimiter returns a limiter allowing perSec session opens with the
// given burst, or nil when perSec <= 0.
func NewOpenLimiter(perSec float64, burst int) *rate.Limiter {
	if perSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSec), max(burst, 1))
}

// New builds the configured backend for locator.
func New(locator string, opts Options) (Source, error) {
	switch opts.Backend {
	case "", "ffmpeg":
		return NewFFmpegSource(locator, opts), nil
	case "gocv":
		return NewGoCVSource(locator, opts)
	default:
		return nil, fmt.Errorf("unknown frame backend %q", opts.Backend)
	}
}

func waitOpen(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
