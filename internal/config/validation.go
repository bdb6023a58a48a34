// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"strings"

	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/frames"
	"github.com/ManuGH/adscan/internal/validate"
)

// Normalize canonicalises user input before validation: ROI percentages
// given as whole numbers (15 for 15%) are scaled to fractions and enum-like
// strings are lower-cased.
func Normalize(cfg *AppConfig) {
	NormalizeDetect(&cfg.Detect)
	cfg.Frames.Backend = strings.ToLower(strings.TrimSpace(cfg.Frames.Backend))
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	cfg.Telemetry.Exporter = strings.ToLower(strings.TrimSpace(cfg.Telemetry.Exporter))
	if cfg.HTTP.UserAgent == "" {
		v := cfg.Version
		if v == "" {
			v = "dev"
		}
		cfg.HTTP.UserAgent = "adscan/" + v
	}
}

// NormalizeDetect applies the Detect part of Normalize.
func NormalizeDetect(d *Detect) {
	if d.ROIWidthPct > 1 {
		d.ROIWidthPct /= 100
	}
	d.Strategy = strings.ToLower(strings.TrimSpace(d.Strategy))
	d.Corner = strings.ToLower(strings.TrimSpace(d.Corner))
	d.Source = strings.TrimSpace(d.Source)
}

// Validate checks the application-wide configuration. Source and corner are
// per-run values and are checked by Detect.Validate.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.LogLevel("logLevel", cfg.LogLevel)
	validateDetectParams(v, cfg.Detect)

	v.OneOf("frames.backend", cfg.Frames.Backend, []string{"ffmpeg", "gocv"})
	if cfg.Frames.Backend == "ffmpeg" {
		v.NotEmpty("frames.ffmpegBin", cfg.Frames.FFmpegBin)
	}
	if cfg.Frames.FrameTimeout <= 0 {
		v.AddError("frames.frameTimeout", "must be positive", cfg.Frames.FrameTimeout)
	}
	v.NonNegativeFloat("frames.openRate", cfg.Frames.OpenRate)
	if cfg.Frames.OpenRate > 0 {
		v.Positive("frames.openBurst", cfg.Frames.OpenBurst)
	}

	if cfg.HTTP.Timeout <= 0 {
		v.AddError("http.timeout", "must be positive", cfg.HTTP.Timeout)
	}

	v.Positive("server.maxConcurrentJobs", cfg.Server.MaxConcurrentJobs)
	v.Positive("server.queueSize", cfg.Server.QueueSize)
	v.NonNegative("server.rateLimitPerMin", cfg.Server.RateLimitPerMin)
	if err := cfg.Server.Sources.Policy().Validate(); err != nil {
		v.AddError("server.sources", err.Error(), cfg.Server.Sources)
	}

	v.OneOf("store.backend", cfg.Store.Backend, []string{"memory", "redis", "sqlite", "badger"})
	switch cfg.Store.Backend {
	case "redis":
		v.NotEmpty("store.redisAddr", cfg.Store.RedisAddr)
		v.Range("store.redisDB", cfg.Store.RedisDB, 0, 15)
	case "sqlite":
		v.NotEmpty("store.sqlitePath", cfg.Store.SQLitePath)
	case "badger":
		v.NotEmpty("store.badgerPath", cfg.Store.BadgerPath)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %w", faults.ErrConfiguration, err)
	}
	return nil
}

// Validate checks a single run's options, including the source locator and
// the mandatory corner.
func (d Detect) Validate() error {
	v := validate.New()
	v.PlaylistSource("source", d.Source)
	if strings.TrimSpace(d.Corner) == "" {
		v.AddError("corner", "exactly one corner is required (tl, tr, bl, br)", d.Corner)
	}
	v.NotEmpty("output", d.Output)
	validateDetectParams(v, d)
	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %w", faults.ErrConfiguration, err)
	}
	return nil
}

func validateDetectParams(v *validate.Validator, d Detect) {
	if d.Corner != "" {
		if _, err := frames.ParseCorner(d.Corner); err != nil {
			v.AddError("corner", err.Error(), d.Corner)
		}
	}
	v.OpenClosed("roiWidthPct", d.ROIWidthPct, 0, 1)
	v.PositiveFloat("sampleEverySec", d.SampleEverySec)
	v.Min("k", d.K, 2)
	v.NonNegativeFloat("minAdSec", d.MinAdSec)
	v.NonNegative("threads", d.Threads)

	v.OneOf("strategy", d.Strategy, Strategies)
	v.Min("smoothWindow", d.SmoothWindow, 1)
	v.PositiveFloat("enterMult", d.EnterMult)
	v.PositiveFloat("exitMult", d.ExitMult)
	if d.ExitMult > d.EnterMult {
		v.AddError("exitMult",
			fmt.Sprintf("must not exceed enterMult (%g > %g)", d.ExitMult, d.EnterMult),
			d.ExitMult)
	}
	v.Min("enterConsecutive", d.EnterConsecutive, 1)
	v.Min("exitConsecutive", d.ExitConsecutive, 1)

	v.NonNegativeFloat("dbscanEps", d.DBSCANEps)
	v.Min("dbscanMinPts", d.DBSCANMinPts, 2)
	v.Min("lofK", d.LOFK, 2)
	v.PositiveFloat("lofThreshold", d.LOFThreshold)
	v.Min("knnK", d.KNNK, 1)
	v.OpenClosed("knnQuantile", d.KNNQuantile, 0, 1)
	v.FloatRange("templateThreshold", d.TemplateThreshold, 0, 1)

	if d.Refine {
		v.FloatRange("refineStepSec", d.RefineStepSec, 2.5, 5)
		v.PositiveFloat("refineWindowSec", d.RefineWindowSec)
	}
	if d.Debug {
		v.NotEmpty("debugDir", d.DebugDir)
	}
}
