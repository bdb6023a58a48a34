// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for adscan.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels are bounded enums (strategy, phase, outcome, backend). Never label
// by source URL or channel.

var (
	// RunsTotal counts detection runs by strategy and outcome.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adscan_runs_total",
		Help: "Total number of detection runs, by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	// RunDuration observes end-to-end run time.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adscan_run_duration_seconds",
		Help:    "Duration of detection runs, by strategy.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"strategy"})

	// SamplesTotal counts frame samples by phase (training/refine) and outcome (ok/unreadable).
	SamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adscan_samples_total",
		Help: "Total number of frame samples, by phase and outcome.",
	}, []string{"phase", "outcome"})

	// FrameFetchDuration observes single-frame retrieval latency.
	FrameFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adscan_frame_fetch_duration_seconds",
		Help:    "Latency of single frame retrieval, by backend.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"backend"})

	// AdsDetectedTotal counts reported ad intervals.
	AdsDetectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adscan_ads_detected_total",
		Help: "Total number of ad intervals reported, by strategy.",
	}, []string{"strategy"})

	// RefineAdjustmentsTotal counts boundary refinement results by edge and outcome.
	RefineAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adscan_refine_adjustments_total",
		Help: "Total number of refinement results, by edge (start/end) and outcome (moved/kept/reverted).",
	}, []string{"edge", "outcome"})

	// Jobs tracks jobs known to the service runner by state.
	Jobs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "adscan_jobs",
		Help: "Current number of jobs, by state.",
	}, []string{"state"})
)

// RecordRun records a finished run.
func RecordRun(strategy, outcome string, d time.Duration) {
	RunsTotal.WithLabelValues(strategy, outcome).Inc()
	RunDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordSamples adds n samples of the given phase and outcome.
func RecordSamples(phase, outcome string, n int) {
	if n <= 0 {
		return
	}
	SamplesTotal.WithLabelValues(phase, outcome).Add(float64(n))
}

// ObserveFrameFetch records one frame retrieval.
func ObserveFrameFetch(backend string, d time.Duration) {
	FrameFetchDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// RecordAds adds the number of ad intervals reported by a run.
func RecordAds(strategy string, n int) {
	AdsDetectedTotal.WithLabelValues(strategy).Add(float64(n))
}

// RecordRefine records one refined edge.
func RecordRefine(edge, outcome string) {
	RefineAdjustmentsTotal.WithLabelValues(edge, outcome).Inc()
}

// SetJobs sets the gauge for one job state.
func SetJobs(state string, n int) {
	Jobs.WithLabelValues(state).Set(float64(n))
}

// WriteTextfile writes the default registry in the Prometheus text format,
// for node_exporter's textfile collector after one-shot CLI runs.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
