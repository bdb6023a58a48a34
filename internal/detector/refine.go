// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package detector

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ManuGH/adscan/internal/classify"
	"github.com/ManuGH/adscan/internal/intervals"
	xglog "github.com/ManuGH/adscan/internal/log"
	"github.com/ManuGH/adscan/internal/metrics"
	"github.com/ManuGH/adscan/internal/sampling"
	"github.com/ManuGH/adscan/internal/telemetry"
)

// refine probes the windows before each boundary with the active strategy.
// A failing probe pool keeps every coarse boundary; only cancellation of
// the run is returned as an error.
func (r *run) refine(ctx context.Context) (err error) {
	ctx, span := telemetry.StartPhase(ctx, "refine")
	defer func() { telemetry.End(span, err) }()

	plan := intervals.PlanRefinement(r.ads, r.total(), r.opts.RefineWindowSec, r.opts.RefineStepSec)
	span.SetAttributes(attribute.Int(telemetry.ProbesKey, len(plan.Probes)))
	if len(plan.Probes) == 0 {
		return nil
	}

	ex := r.extractor
	ex.CaptureROI = r.extractor.CaptureROI && r.classifier.Name() == classify.Template

	results, perr := sampling.Run(ctx, r.src, ex, sampling.Jobs(plan.Offsets()), r.total(), sampling.Options{
		Workers: r.opts.Threads,
		Phase:   "refine",
		Logger:  r.logger,
	})
	if perr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn().
			Err(perr).
			Str(xglog.FieldEvent, "refine.failed").
			Int("ads", len(r.ads)).
			Msg("refinement failed, keeping coarse boundaries")
		for range r.ads {
			metrics.RecordRefine(intervals.StartEdge.String(), "kept")
			metrics.RecordRefine(intervals.EndEdge.String(), "kept")
		}
		return nil
	}

	present := make([]bool, len(results))
	for i, res := range results {
		present[i] = res.OK && r.classifier.Probe(res.Observation)
	}

	for _, a := range plan.Resolve(r.ads, present, r.opts.MinAdSec) {
		recordAdjustment(a)
		if !a.Changed() && !a.Reverted {
			continue
		}
		r.logger.Info().
			Str(xglog.FieldEvent, "refine.adjusted").
			Int("index", a.Index).
			Float64("coarse_start_sec", a.Coarse.StartSec).
			Float64("coarse_end_sec", a.Coarse.EndSec).
			Float64("start_sec", a.Refined.StartSec).
			Float64("end_sec", a.Refined.EndSec).
			Bool("reverted", a.Reverted).
			Msg("ad boundaries refined")
	}
	return nil
}

func recordAdjustment(a intervals.Adjustment) {
	edge := func(coarse, refined float64) string {
		switch {
		case a.Reverted:
			return "reverted"
		case coarse != refined:
			return "moved"
		default:
			return "kept"
		}
	}
	metrics.RecordRefine(intervals.StartEdge.String(), edge(a.Coarse.StartSec, a.Refined.StartSec))
	metrics.RecordRefine(intervals.EndEdge.String(), edge(a.Coarse.EndSec, a.Refined.EndSec))
}
