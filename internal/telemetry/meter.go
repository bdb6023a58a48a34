// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for adscan metrics.
const MeterName = "adscan.detector"

// Metric instrument names.
const (
	RunsMetric        = "adscan.runs"
	RunDurationMetric = "adscan.run.duration"
	AdsMetric         = "adscan.ads"
)

// RecordRun emits one finished run to the global meter provider. The
// provider is looked up on every call so tests and late initialisation
// can swap it.
func RecordRun(ctx context.Context, strategy, outcome string, elapsed time.Duration, ads int) {
	meter := otel.GetMeterProvider().Meter(MeterName)
	attrs := metric.WithAttributes(
		attribute.String(StrategyKey, strategy),
		attribute.String("outcome", outcome),
	)

	if runs, err := meter.Int64Counter(RunsMetric, metric.WithDescription("Detection runs")); err == nil {
		runs.Add(ctx, 1, attrs)
	}
	if dur, err := meter.Float64Histogram(RunDurationMetric,
		metric.WithDescription("Detection run duration"), metric.WithUnit("s")); err == nil {
		dur.Record(ctx, elapsed.Seconds(), attrs)
	}
	if ads > 0 {
		if c, err := meter.Int64Counter(AdsMetric, metric.WithDescription("Reported ad intervals")); err == nil {
			c.Add(ctx, int64(ads), metric.WithAttributes(attribute.String(StrategyKey, strategy)))
		}
	}
}
