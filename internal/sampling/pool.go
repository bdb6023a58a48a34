// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sampling runs frame extraction across a fixed pool of workers,
// one decode session per worker.
package sampling

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/frames"
	"github.com/ManuGH/adscan/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one job. Err holds the recovered per-frame
// failure; OK is false whenever the frame could not be used.
type Result struct {
	Slot        int
	OffsetSec   float64
	Observation frames.Observation
	OK          bool
	Err         error
}

// Options configures a pool run.
type Options struct {
	// Workers is the pool size; 0 means runtime.NumCPU(). The pool never
	// starts more workers than there are jobs.
	Workers int
	// Phase labels metrics and log lines ("training", "refine").
	Phase  string
	Logger zerolog.Logger
}

// WorkerCount resolves the configured size against the job count.
func WorkerCount(configured, jobs int) int {
	n := configured
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, jobs))
}

// Run extracts an observation for every job. Results are written into a
// preallocated slot per job and returned in slot order; no locking is
// involved. A worker that cannot open its session fails the run with
// faults.ErrPoolFailure once all workers have returned.
func Run(ctx context.Context, src frames.Source, ex frames.Extractor, jobs []Job, total float64, opts Options) ([]Result, error) {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}
	for _, j := range jobs {
		if j.Slot < 0 || j.Slot >= len(jobs) {
			return nil, fmt.Errorf("job slot %d out of range [0,%d)", j.Slot, len(jobs))
		}
	}

	n := WorkerCount(opts.Workers, len(jobs))
	buckets := Buckets(jobs, total, n)

	g, gctx := errgroup.WithContext(ctx)
	for w, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		g.Go(func() error {
			return runWorker(gctx, w, src, ex, bucket, results, opts)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ok, bad int
	for _, r := range results {
		if r.OK {
			ok++
		} else {
			bad++
		}
	}
	metrics.RecordSamples(opts.Phase, "ok", ok)
	metrics.RecordSamples(opts.Phase, "unreadable", bad)
	return results, nil
}

func runWorker(ctx context.Context, w int, src frames.Source, ex frames.Extractor, bucket []Job, results []Result, opts Options) error {
	logger := opts.Logger.With().Int("worker", w).Str("phase", opts.Phase).Logger()

	sess, err := src.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: worker %d: open session: %w", faults.ErrPoolFailure, w, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Debug().Err(cerr).Msg("close session")
		}
	}()

	for _, job := range bucket {
		res := Result{Slot: job.Slot, OffsetSec: job.OffsetSec}
		img, err := sess.FrameAt(ctx, job.OffsetSec)
		if err == nil {
			res.Observation, err = ex.Extract(img)
			if err != nil {
				err = &faults.DecodeError{OffsetSec: job.OffsetSec, Err: err}
			}
		}
		if err != nil {
			res.Err = err
			logger.Debug().Err(err).Float64("offset_sec", job.OffsetSec).Str("event", opts.Phase+".unreadable").Msg("frame unreadable")
		} else {
			res.OK = true
			logger.Trace().Float64("offset_sec", job.OffsetSec).Str("event", opts.Phase+".sample").Msg("frame sampled")
		}
		results[job.Slot] = res
	}
	return nil
}
