// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package frames

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"time"

	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/metrics"
	"github.com/ManuGH/adscan/internal/procgroup"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxStderr = 4096

// FFmpegSource grabs single frames by running one ffmpeg process per
// request with input seeking.
type FFmpegSource struct {
	locator string
	bin     string
	timeout time.Duration
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewFFmpegSource creates an ffmpeg-backed source. An empty binary defaults to "ffmpeg".
func NewFFmpegSource(locator string, opts Options) *FFmpegSource {
	bin := opts.FFmpegBin
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegSource{
		locator: locator,
		bin:     bin,
		timeout: opts.Timeout,
		limiter: opts.Limiter,
		logger:  opts.Logger,
	}
}

// Backend implements Source.
func (s *FFmpegSource) Backend() string { return "ffmpeg" }

// Open implements Source. It resolves the binary once per session.
func (s *FFmpegSource) Open(ctx context.Context) (Session, error) {
	if err := waitOpen(ctx, s.limiter); err != nil {
		return nil, err
	}
	path, err := exec.LookPath(s.bin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}
	return &ffmpegSession{src: s, path: path}, nil
}

type ffmpegSession struct {
	src  *FFmpegSource
	path string
}

func (s *ffmpegSession) args(offsetSec float64) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-protocol_whitelist", "file,http,https,tcp,tls,crypto",
		"-ss", strconv.FormatFloat(offsetSec, 'f', 3, 64),
		"-i", s.src.locator,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

// FrameAt implements Session.
func (s *ffmpegSession) FrameAt(ctx context.Context, offsetSec float64) (image.Image, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveFrameFetch("ffmpeg", time.Since(start))
	}()

	if s.src.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.src.timeout)
		defer cancel()
	}

	// #nosec G204 -- binary resolved via LookPath from operator config; locator is passed as a single argument
	cmd := exec.CommandContext(ctx, s.path, s.args(offsetSec)...)
	procgroup.Bind(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errStr := stderr.String()
		if len(errStr) > maxStderr {
			errStr = errStr[:maxStderr] + "..."
		}
		return nil, &faults.DecodeError{
			OffsetSec: offsetSec,
			Err:       fmt.Errorf("ffmpeg failed: %w (stderr: %s)", err, errStr),
		}
	}
	if stdout.Len() == 0 {
		return nil, &faults.DecodeError{OffsetSec: offsetSec, Err: fmt.Errorf("ffmpeg produced no frame")}
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, &faults.DecodeError{OffsetSec: offsetSec, Err: fmt.Errorf("decode png: %w", err)}
	}
	return img, nil
}

// Close implements Session. ffmpeg sessions hold no resources between frames.
func (s *ffmpegSession) Close() error { return nil }
