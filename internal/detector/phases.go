// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package detector

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ManuGH/adscan/internal/classify"
	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/intervals"
	xglog "github.com/ManuGH/adscan/internal/log"
	"github.com/ManuGH/adscan/internal/logo"
	"github.com/ManuGH/adscan/internal/sampling"
	"github.com/ManuGH/adscan/internal/telemetry"
)

func attributeTotal(sec float64) attribute.KeyValue {
	return attribute.Float64(telemetry.DurationKey, sec)
}

// sample extracts one observation every SampleEverySec and keeps the
// readable ones in time order.
func (r *run) sample(ctx context.Context) (err error) {
	offsets := sampling.Schedule(r.total(), r.opts.SampleEverySec)
	if len(offsets) < faults.MinSamples {
		return fmt.Errorf("%w: %d timestamps in %.3fs, need %d",
			faults.ErrInsufficientSamples, len(offsets), r.total(), faults.MinSamples)
	}
	jobs := sampling.Jobs(offsets)
	workers := sampling.WorkerCount(r.opts.Threads, len(jobs))

	ctx, span := telemetry.StartPhase(ctx, "sample")
	defer func() { telemetry.End(span, err) }()

	results, err := sampling.Run(ctx, r.src, r.extractor, jobs, r.total(), sampling.Options{
		Workers: r.opts.Threads,
		Phase:   "training",
		Logger:  r.logger,
	})
	if err != nil {
		return err
	}

	for _, res := range results {
		if !res.OK {
			continue
		}
		r.times = append(r.times, res.OffsetSec)
		r.hists = append(r.hists, res.Observation.Histogram)
		r.rois = append(r.rois, res.Observation.ROI)
	}
	span.SetAttributes(telemetry.SamplingAttributes(len(jobs), len(r.times), workers)...)
	r.logger.Info().
		Str(xglog.FieldEvent, "training.sampled").
		Int("scheduled", len(jobs)).
		Int("readable", len(r.times)).
		Int("workers", workers).
		Msg("training frames sampled")
	return nil
}

func (r *run) train(ctx context.Context) (err error) {
	_, span := telemetry.StartPhase(ctx, "train")
	defer func() { telemetry.End(span, err) }()

	t, err := logo.Train(r.hists, r.corner, r.opts.K)
	if err != nil {
		return err
	}
	r.training = t
	span.SetAttributes(telemetry.TrainingAttributes(len(t.Model.Seeds), t.Model.Threshold)...)
	r.logger.Info().
		Str(xglog.FieldEvent, "training.complete").
		Int("seeds", len(t.Model.Seeds)).
		Float64("threshold", t.Model.Threshold).
		Msg("logo model trained")
	return nil
}

func (r *run) params() classify.Params {
	o := r.opts
	return classify.Params{
		Strategy:          o.Strategy,
		SmoothWindow:      o.SmoothWindow,
		EnterMult:         o.EnterMult,
		ExitMult:          o.ExitMult,
		DBSCANEps:         o.DBSCANEps,
		DBSCANMinPts:      o.DBSCANMinPts,
		LOFK:              o.LOFK,
		LOFThreshold:      o.LOFThreshold,
		KNNK:              o.KNNK,
		KNNQuantile:       o.KNNQuantile,
		TemplateThreshold: o.TemplateThreshold,
	}
}

func (r *run) classify(ctx context.Context) (err error) {
	_, span := telemetry.StartPhase(ctx, "classify")
	defer func() { telemetry.End(span, err) }()

	c, err := classify.New(r.params(), classify.Input{
		Training:   r.training,
		Histograms: r.hists,
		ROIs:       r.rois,
	})
	if err != nil {
		return err
	}
	r.classifier = c
	if c.Name() != r.opts.Strategy {
		r.logger.Warn().
			Str(xglog.FieldEvent, "classify.fallback").
			Str("requested", r.opts.Strategy).
			Str("used", c.Name()).
			Int("seeds", len(r.training.Model.Seeds)).
			Msg("strategy fell back")
	}
	r.logger.Info().
		Str(xglog.FieldEvent, "classify.complete").
		Int("present", classify.PresentCount(c.Decisions())).
		Int("samples", len(r.times)).
		Msg("samples classified")
	return nil
}

func (r *run) detect(ctx context.Context) (err error) {
	_, span := telemetry.StartPhase(ctx, "intervals")
	defer func() { telemetry.End(span, err) }()

	ads, err := intervals.Detect(r.times, r.classifier.Decisions(), intervals.Hysteresis{
		EnterConsecutive: r.opts.EnterConsecutive,
		ExitConsecutive:  r.opts.ExitConsecutive,
		MinAdSec:         r.opts.MinAdSec,
		TotalSec:         r.total(),
	})
	if err != nil {
		return err
	}
	r.ads = ads
	span.SetAttributes(attribute.Int(telemetry.AdsKey, len(ads)))
	for i, iv := range ads {
		r.logger.Info().
			Str(xglog.FieldEvent, "ad.detected").
			Int("index", i).
			Float64("start_sec", iv.StartSec).
			Float64("end_sec", iv.EndSec).
			Msg("ad window detected")
	}
	return nil
}
