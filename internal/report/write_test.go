// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/adscan/internal/classify"
)

func sampleResult() *Result {
	pdt := "2024-03-01T20:02:00.000+0000"
	return &Result{
		M3U8:             "https://example.test/rec/index.m3u8",
		TotalDurationSec: 600,
		Process:          Process{ElapsedMs: 1200, ElapsedSec: 1.2},
		Training: Training{
			SampleEverySec: 5,
			SampleCount:    120,
			ROIWidthPct:    0.15,
			K:              2,
			LogoCorner:     "top_left",
			Detection:      classify.Detection{Strategy: classify.Distance, EnterConsecutive: 1, ExitConsecutive: 1},
		},
		Ads: []Ad{{
			StartOffsetSec: 120, StartOffsetHms: "00:02:00",
			EndOffsetSec: 180, EndOffsetHms: "00:03:00",
			StartProgramDateTime: &pdt,
		}},
		Debug: Debug{},
	}
}

func TestWriteAtomicAndEcho(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "ads.json")
	var echo bytes.Buffer

	require.NoError(t, Write(context.Background(), path, sampleResult(), &echo))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, echo.Bytes(), data)
	assert.True(t, bytes.HasSuffix(data, []byte("\n")))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"m3u8", "totalDurationSec", "process", "training", "ads", "debug"} {
		assert.Contains(t, doc, key)
	}
	ad := doc["ads"].([]any)[0].(map[string]any)
	assert.Equal(t, "2024-03-01T20:02:00.000+0000", ad["startProgramDateTime"])
	assert.Contains(t, ad, "endProgramDateTime")
	assert.Nil(t, ad["endProgramDateTime"])

	debug := doc["debug"].(map[string]any)
	assert.Contains(t, debug, "logosOutputDir")
	assert.Nil(t, debug["logosOutputDir"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWriteEmptyAdsIsArray(t *testing.T) {
	r := sampleResult()
	r.Ads = []Ad{}
	data, err := Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ads": []`)
}

func TestWriteReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ads.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	require.NoError(t, Write(context.Background(), path, sampleResult(), nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}
