// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package detector runs the full logo-absence pipeline for one recording:
// playlist timeline, parallel sampling, training, classification, interval
// extraction, boundary refinement and result assembly.
package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/adscan/internal/classify"
	"github.com/ManuGH/adscan/internal/config"
	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/frames"
	"github.com/ManuGH/adscan/internal/intervals"
	xglog "github.com/ManuGH/adscan/internal/log"
	"github.com/ManuGH/adscan/internal/logo"
	"github.com/ManuGH/adscan/internal/metrics"
	netpolicy "github.com/ManuGH/adscan/internal/platform/net"
	"github.com/ManuGH/adscan/internal/playlist"
	"github.com/ManuGH/adscan/internal/report"
	"github.com/ManuGH/adscan/internal/telemetry"
)

// PlaylistLoader resolves a locator into a parsed media playlist.
// *playlist.Fetcher implements it.
type PlaylistLoader interface {
	Load(ctx context.Context, locator string) (*playlist.Loaded, error)
}

// SourceFactory opens the frame source for a media playlist locator.
type SourceFactory func(locator string) (frames.Source, error)

// Detector is safe for concurrent use; each Run owns its own state.
type Detector struct {
	playlists PlaylistLoader
	sources   SourceFactory
	logger    zerolog.Logger
	now       func() time.Time
}

// Options configures New.
type Options struct {
	Playlists PlaylistLoader
	Sources   SourceFactory
	// Logger defaults to the "detector" component logger.
	Logger *zerolog.Logger
}

// New creates a detector.
func New(opts Options) *Detector {
	logger := xglog.WithComponent("detector")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Detector{
		playlists: opts.Playlists,
		sources:   opts.Sources,
		logger:    logger,
		now:       time.Now,
	}
}

// Outcome is a finished run.
type Outcome struct {
	Result    *report.Result
	Playlist  *playlist.Playlist
	Intervals []intervals.Interval
}

// Run executes one detection. Options are normalised and validated before
// any I/O happens. The returned error wraps one of the faults sentinels
// for every fatal condition.
func (d *Detector) Run(ctx context.Context, opts config.Detect) (out *Outcome, err error) {
	start := d.now()
	config.NormalizeDetect(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	corner, err := frames.ParseCorner(opts.Corner)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", faults.ErrConfiguration, err)
	}

	ctx = xglog.ContextWithRun(ctx, opts.Channel, netpolicy.SanitizeURL(opts.Source))
	logger := xglog.WithContext(ctx, d.logger).With().
		Str(xglog.FieldStrategy, opts.Strategy).
		Logger()
	ctx = logger.WithContext(ctx)

	ctx, span := telemetry.StartPhase(ctx, "run",
		telemetry.RunAttributes(netpolicy.SanitizeURL(opts.Source), opts.Channel, opts.Strategy, corner.String())...)
	var ads int
	defer func() {
		elapsed := d.now().Sub(start)
		metrics.RecordRun(opts.Strategy, faults.Kind(err), elapsed)
		telemetry.RecordRun(ctx, opts.Strategy, faults.Kind(err), elapsed, ads)
		telemetry.End(span, err)
	}()

	r := &run{opts: opts, corner: corner, logger: logger}

	if err := d.loadPlaylist(ctx, r); err != nil {
		return nil, err
	}
	src, err := d.sources(r.loaded.MediaLocator)
	if err != nil {
		return nil, fmt.Errorf("%w: frame source: %w", faults.ErrConfiguration, err)
	}
	r.src = src
	r.extractor = frames.Extractor{
		Corner:     corner,
		WidthPct:   opts.ROIWidthPct,
		CaptureROI: opts.Strategy == config.StrategyTemplate || opts.Debug,
	}

	if err := r.sample(ctx); err != nil {
		return nil, err
	}
	if err := r.train(ctx); err != nil {
		return nil, err
	}
	if err := r.classify(ctx); err != nil {
		return nil, err
	}
	if err := r.detect(ctx); err != nil {
		return nil, err
	}
	if opts.Refine && len(r.ads) > 0 {
		if err := r.refine(ctx); err != nil {
			return nil, err
		}
	}

	res := r.result(d.now().Sub(start))
	if opts.Debug {
		n, err := report.ExportROIs(opts.DebugDir, r.roiSamples(), r.training.Model.Seeds)
		if err != nil {
			return nil, fmt.Errorf("export debug rois: %w", err)
		}
		dir := opts.DebugDir
		res.Debug.LogosOutputDir = &dir
		logger.Info().Str(xglog.FieldEvent, "debug.exported").Str(xglog.FieldPath, dir).Int("logos", n).Msg("debug regions exported")
	}

	ads = len(r.ads)
	metrics.RecordAds(opts.Strategy, ads)
	logger.Info().
		Str(xglog.FieldEvent, "run.complete").
		Int("ads", len(r.ads)).
		Int64("elapsed_ms", res.Process.ElapsedMs).
		Msg("detection finished")

	return &Outcome{Result: res, Playlist: r.loaded.Playlist, Intervals: r.ads}, nil
}

func (d *Detector) loadPlaylist(ctx context.Context, r *run) (err error) {
	ctx, span := telemetry.StartPhase(ctx, "playlist")
	defer func() { telemetry.End(span, err) }()

	loaded, err := d.playlists.Load(ctx, r.opts.Source)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	r.loaded = loaded
	span.SetAttributes(attributeTotal(loaded.Playlist.TotalDurationSec))
	r.logger.Info().
		Str(xglog.FieldEvent, "playlist.loaded").
		Int("segments", len(loaded.Playlist.Segments)).
		Float64("total_duration_sec", loaded.Playlist.TotalDurationSec).
		Msg("playlist loaded")
	return nil
}

// run carries the state of one Run call.
type run struct {
	opts      config.Detect
	corner    frames.Corner
	logger    zerolog.Logger
	loaded    *playlist.Loaded
	src       frames.Source
	extractor frames.Extractor

	// readable training samples in time order
	times []float64
	hists [][]float64
	rois  [][]byte

	training   *logo.Training
	classifier classify.Classifier
	ads        []intervals.Interval
}

func (r *run) total() float64 { return r.loaded.Playlist.TotalDurationSec }

func (r *run) result(elapsed time.Duration) *report.Result {
	det := r.classifier.Detection()
	det.EnterConsecutive = r.opts.EnterConsecutive
	det.ExitConsecutive = r.opts.ExitConsecutive

	return &report.Result{
		M3U8:             r.opts.Source,
		TotalDurationSec: r.total(),
		Process:          report.NewProcess(elapsed),
		Training: report.Training{
			SampleEverySec:             r.opts.SampleEverySec,
			SampleCount:                len(r.times),
			ROIWidthPct:                r.opts.ROIWidthPct,
			K:                          r.opts.K,
			LogoCorner:                 r.corner.String(),
			LogoThresholdBhattacharyya: r.training.Model.Threshold,
			Detection:                  det,
		},
		Ads: report.NewAds(r.loaded.Playlist, r.ads),
		Debug: report.Debug{
			Enabled:         r.opts.Debug,
			LogoSampleCount: len(r.training.Model.Seeds),
		},
	}
}

func (r *run) roiSamples() []report.ROISample {
	out := make([]report.ROISample, len(r.times))
	for i := range r.times {
		out[i] = report.ROISample{Index: i, OffsetSec: r.times[i], PNG: r.rois[i]}
	}
	return out
}
