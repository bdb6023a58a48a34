// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestRunAttributes(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		wantLen int
	}{
		{"with channel", "ARD", 4},
		{"without channel", "", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := RunAttributes("rec.m3u8", tt.channel, "knn", "br")
			assert.Len(t, attrs, tt.wantLen)
			assert.Contains(t, attrs, attribute.String(CornerKey, "br"))
		})
	}
}

func TestSamplingAndTrainingAttributes(t *testing.T) {
	s := SamplingAttributes(120, 118, 8)
	assert.Equal(t, []attribute.KeyValue{
		attribute.Int(SamplesKey, 120),
		attribute.Int(ReadableKey, 118),
		attribute.Int(WorkersKey, 8),
	}, s)

	tr := TrainingAttributes(40, 0.31)
	assert.Contains(t, tr, attribute.Float64(ThresholdKey, 0.31))
}
