// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ManuGH/adscan/internal/config"
	"github.com/ManuGH/adscan/internal/detector"
	"github.com/ManuGH/adscan/internal/faults"
	xglog "github.com/ManuGH/adscan/internal/log"
	"github.com/ManuGH/adscan/internal/metrics"
	"github.com/ManuGH/adscan/internal/platform/httpx"
	"github.com/ManuGH/adscan/internal/playlist"
	"github.com/ManuGH/adscan/internal/report"
	"github.com/ManuGH/adscan/internal/telemetry"
)

// detectFlags mirrors config.Detect. Only flags the user set override the
// file and environment layers.
type detectFlags struct {
	d config.Detect

	tl, tr, bl, br bool
	frameBackend   string
	ffmpegBin      string
}

func (a *app) detectCmd() *cobra.Command {
	f := &detectFlags{d: config.DefaultDetect()}

	cmd := &cobra.Command{
		Use:   "detect [playlist]",
		Short: "Detect ad windows in one recording",
		Long: `Samples the recording, learns the logo in the chosen corner and writes
the detected ad windows as JSON to --output and to stdout.

Exit codes: 0 success, 2 configuration, 3 playlist unavailable,
4 too few readable samples, 5 frame decoding failed, 1 other errors.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if cmd.Flags().Changed("m3u8") {
					return fmt.Errorf("%w: give the playlist either as argument or with --m3u8", faults.ErrConfiguration)
				}
				f.d.Source = args[0]
			}
			corner, err := f.corner()
			if err != nil {
				return err
			}
			return a.runDetect(cmd.Context(), f.overrides(cmd.Flags(), len(args) == 1, corner))
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.d.Source, "m3u8", "", "playlist path, file:// or http(s) URL")
	fl.StringVar(&f.d.Channel, "channel", "", "channel name recorded in logs")
	fl.StringVarP(&f.d.Output, "output", "o", f.d.Output, "result file (written atomically)")

	fl.BoolVar(&f.tl, "tl", false, "logo in the top-left corner")
	fl.BoolVar(&f.tr, "tr", false, "logo in the top-right corner")
	fl.BoolVar(&f.bl, "bl", false, "logo in the bottom-left corner")
	fl.BoolVar(&f.br, "br", false, "logo in the bottom-right corner")
	fl.StringVar(&f.d.Corner, "corner", "", "logo corner: tl, tr, bl or br")
	fl.Float64Var(&f.d.ROIWidthPct, "roi", f.d.ROIWidthPct, "corner width as fraction of the frame (values > 1 are percent)")

	fl.Float64Var(&f.d.SampleEverySec, "every-sec", f.d.SampleEverySec, "sampling interval in seconds")
	fl.IntVar(&f.d.K, "k", f.d.K, "clusters for logo training")
	fl.Float64Var(&f.d.MinAdSec, "min-ad-sec", f.d.MinAdSec, "shortest reported ad window in seconds")
	fl.IntVar(&f.d.Threads, "threads", f.d.Threads, "workers (0 = number of CPUs)")

	fl.StringVar(&f.d.Strategy, "strategy", f.d.Strategy, "classifier: "+strings.Join(config.Strategies, ", "))
	fl.IntVar(&f.d.SmoothWindow, "smooth", f.d.SmoothWindow, "moving-average window for the distance strategy")
	fl.Float64Var(&f.d.EnterMult, "enter-mult", f.d.EnterMult, "threshold multiplier to enter an ad")
	fl.Float64Var(&f.d.ExitMult, "exit-mult", f.d.ExitMult, "threshold multiplier to leave an ad")
	fl.IntVar(&f.d.EnterConsecutive, "enter-n", f.d.EnterConsecutive, "consecutive absent samples to enter an ad")
	fl.IntVar(&f.d.ExitConsecutive, "exit-n", f.d.ExitConsecutive, "consecutive present samples to leave an ad")
	fl.Float64Var(&f.d.DBSCANEps, "dbscan-eps", f.d.DBSCANEps, "DBSCAN radius (0 = automatic)")
	fl.IntVar(&f.d.DBSCANMinPts, "dbscan-minpts", f.d.DBSCANMinPts, "DBSCAN core point neighbours")
	fl.IntVar(&f.d.LOFK, "lof-k", f.d.LOFK, "LOF neighbourhood size")
	fl.Float64Var(&f.d.LOFThreshold, "lof-th", f.d.LOFThreshold, "LOF outlier threshold")
	fl.IntVar(&f.d.KNNK, "knn-k", f.d.KNNK, "k-NN neighbourhood size")
	fl.Float64Var(&f.d.KNNQuantile, "knn-q", f.d.KNNQuantile, "k-NN threshold quantile")
	fl.Float64Var(&f.d.TemplateThreshold, "template-th", f.d.TemplateThreshold, "template NCC threshold (0 = automatic)")

	fl.BoolVar(&f.d.Refine, "refine", f.d.Refine, "refine ad boundaries with extra probes")
	fl.Float64Var(&f.d.RefineStepSec, "refine-step-sec", f.d.RefineStepSec, "refinement probe spacing (2.5 to 5 s)")
	fl.Float64Var(&f.d.RefineWindowSec, "refine-window-sec", f.d.RefineWindowSec, "refinement window before each boundary")

	fl.BoolVar(&f.d.Debug, "debug", false, "export sampled corners and logo seeds as PNG")
	fl.StringVar(&f.d.DebugDir, "debug-dir", f.d.DebugDir, "directory for --debug exports")
	fl.StringVar(&f.d.MetricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")
	fl.BoolVarP(&a.quiet, "quiet", "q", false, "only log warnings and errors")

	fl.StringVar(&f.frameBackend, "frame-backend", "", "frame decoder: ffmpeg or gocv")
	fl.StringVar(&f.ffmpegBin, "ffmpeg-bin", "", "ffmpeg executable")

	return cmd
}

// corner resolves the shorthand corner flags. Exactly one corner may be
// named across --tl/--tr/--bl/--br and --corner.
func (f *detectFlags) corner() (string, error) {
	var named []string
	for _, c := range []struct {
		set  bool
		name string
	}{{f.tl, "tl"}, {f.tr, "tr"}, {f.bl, "bl"}, {f.br, "br"}} {
		if c.set {
			named = append(named, c.name)
		}
	}
	if f.d.Corner != "" {
		named = append(named, f.d.Corner)
	}
	switch len(named) {
	case 0:
		return "", nil
	case 1:
		return named[0], nil
	default:
		return "", fmt.Errorf("%w: exactly one corner is allowed, got %s", faults.ErrConfiguration, strings.Join(named, ", "))
	}
}

// overrides returns the loader mutation applying every changed flag.
func (f *detectFlags) overrides(fs *pflag.FlagSet, sourceArg bool, corner string) func(*config.AppConfig) {
	return func(cfg *config.AppConfig) {
		d := &cfg.Detect
		set := func(name string, apply func()) {
			if fs.Changed(name) {
				apply()
			}
		}
		if sourceArg {
			d.Source = f.d.Source
		}
		set("m3u8", func() { d.Source = f.d.Source })
		set("channel", func() { d.Channel = f.d.Channel })
		set("output", func() { d.Output = f.d.Output })
		if corner != "" {
			d.Corner = corner
		}
		set("roi", func() { d.ROIWidthPct = f.d.ROIWidthPct })
		set("every-sec", func() { d.SampleEverySec = f.d.SampleEverySec })
		set("k", func() { d.K = f.d.K })
		set("min-ad-sec", func() { d.MinAdSec = f.d.MinAdSec })
		set("threads", func() { d.Threads = f.d.Threads })
		set("strategy", func() { d.Strategy = f.d.Strategy })
		set("smooth", func() { d.SmoothWindow = f.d.SmoothWindow })
		set("enter-mult", func() { d.EnterMult = f.d.EnterMult })
		set("exit-mult", func() { d.ExitMult = f.d.ExitMult })
		set("enter-n", func() { d.EnterConsecutive = f.d.EnterConsecutive })
		set("exit-n", func() { d.ExitConsecutive = f.d.ExitConsecutive })
		set("dbscan-eps", func() { d.DBSCANEps = f.d.DBSCANEps })
		set("dbscan-minpts", func() { d.DBSCANMinPts = f.d.DBSCANMinPts })
		set("lof-k", func() { d.LOFK = f.d.LOFK })
		set("lof-th", func() { d.LOFThreshold = f.d.LOFThreshold })
		set("knn-k", func() { d.KNNK = f.d.KNNK })
		set("knn-q", func() { d.KNNQuantile = f.d.KNNQuantile })
		set("template-th", func() { d.TemplateThreshold = f.d.TemplateThreshold })
		set("refine", func() { d.Refine = f.d.Refine })
		set("refine-step-sec", func() { d.RefineStepSec = f.d.RefineStepSec })
		set("refine-window-sec", func() { d.RefineWindowSec = f.d.RefineWindowSec })
		set("debug", func() { d.Debug = f.d.Debug })
		set("debug-dir", func() { d.DebugDir = f.d.DebugDir })
		set("metrics-textfile", func() { d.MetricsTextfile = f.d.MetricsTextfile })
		set("frame-backend", func() { cfg.Frames.Backend = f.frameBackend })
		set("ffmpeg-bin", func() { cfg.Frames.FFmpegBin = f.ffmpegBin })
	}
}

func (a *app) runDetect(ctx context.Context, override func(*config.AppConfig)) (err error) {
	cfg, _, err := a.loadConfig(override)
	if err != nil {
		return err
	}
	logger := xglog.WithComponent("detect")

	tp, err := telemetry.NewProvider(ctx, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("%w: %w", faults.ErrConfiguration, err)
	}
	defer func() {
		if serr := tp.Shutdown(context.WithoutCancel(ctx)); serr != nil {
			logger.Warn().Err(serr).Str(xglog.FieldEvent, "telemetry.shutdown_failed").Msg("telemetry shutdown failed")
		}
	}()

	fetcher := playlist.NewFetcher(
		httpx.NewClient(cfg.HTTP.Timeout, cfg.HTTP.UserAgent),
		xglog.WithComponent("playlist"),
	)
	det := detector.New(detector.Options{
		Playlists: fetcher,
		Sources:   a.sources(cfg.Frames, xglog.WithComponent("frames")),
	})

	defer func() {
		if cfg.Detect.MetricsTextfile == "" {
			return
		}
		if werr := metrics.WriteTextfile(cfg.Detect.MetricsTextfile); werr != nil {
			logger.Warn().
				Err(werr).
				Str(xglog.FieldEvent, "metrics.textfile_failed").
				Str(xglog.FieldPath, cfg.Detect.MetricsTextfile).
				Msg("writing metrics textfile failed")
		}
	}()

	out, err := det.Run(ctx, cfg.Detect)
	if err != nil {
		return err
	}
	if err := report.Write(ctx, cfg.Detect.Output, out.Result, a.stdout); err != nil {
		return err
	}
	logger.Info().
		Str(xglog.FieldEvent, "result.written").
		Str(xglog.FieldPath, cfg.Detect.Output).
		Int("ads", len(out.Result.Ads)).
		Msg("result written")
	return nil
}

func telemetryConfig(cfg config.AppConfig) telemetry.Config {
	return telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	}
}
