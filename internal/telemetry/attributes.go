// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used on detector spans.
const (
	SourceKey    = "adscan.source"
	ChannelKey   = "adscan.channel"
	StrategyKey  = "adscan.strategy"
	CornerKey    = "adscan.corner"
	WorkersKey   = "adscan.workers"
	JobIDKey     = "adscan.job_id"
	DurationKey  = "adscan.total_duration_sec"
	SamplesKey   = "adscan.samples"
	ReadableKey  = "adscan.samples_readable"
	SeedsKey     = "adscan.seeds"
	ThresholdKey = "adscan.threshold"
	AdsKey       = "adscan.ads"
	ProbesKey    = "adscan.probes"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// RunAttributes describes a detection run.
func RunAttributes(source, channel, strategy, corner string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(SourceKey, source),
		attribute.String(StrategyKey, strategy),
		attribute.String(CornerKey, corner),
	}
	if channel != "" {
		attrs = append(attrs, attribute.String(ChannelKey, channel))
	}
	return attrs
}

// SamplingAttributes describes one sampling pass.
func SamplingAttributes(samples, readable, workers int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(SamplesKey, samples),
		attribute.Int(ReadableKey, readable),
		attribute.Int(WorkersKey, workers),
	}
}

// TrainingAttributes describes the trained model.
func TrainingAttributes(seeds int, threshold float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(SeedsKey, seeds),
		attribute.Float64(ThresholdKey, threshold),
	}
}

// ErrorAttributes flags a span as failed with a short error class.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
