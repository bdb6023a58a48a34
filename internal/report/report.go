// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package report assembles and persists the JSON result of a detection run.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/ManuGH/adscan/internal/classify"
	"github.com/ManuGH/adscan/internal/intervals"
	"github.com/ManuGH/adscan/internal/playlist"
)

// Result is the document written to the output path and stdout.
type Result struct {
	M3U8             string   `json:"m3u8"`
	TotalDurationSec float64  `json:"totalDurationSec"`
	Process          Process  `json:"process"`
	Training         Training `json:"training"`
	Ads              []Ad     `json:"ads"`
	Debug            Debug    `json:"debug"`
}

type Process struct {
	ElapsedMs  int64   `json:"elapsedMs"`
	ElapsedSec float64 `json:"elapsedSec"`
}

// NewProcess converts a wall-clock duration.
func NewProcess(d time.Duration) Process {
	return Process{ElapsedMs: d.Milliseconds(), ElapsedSec: float64(d.Milliseconds()) / 1000}
}

type Training struct {
	SampleEverySec             float64            `json:"sampleEverySec"`
	SampleCount                int                `json:"sampleCount"`
	ROIWidthPct                float64            `json:"roiWidthPct"`
	K                          int                `json:"k"`
	LogoCorner                 string             `json:"logoCorner"`
	LogoThresholdBhattacharyya float64            `json:"logoThresholdBhattacharyya"`
	Detection                  classify.Detection `json:"detection"`
}

// Ad is one reported interval. Program date-times are null when the
// playlist carries no EXT-X-PROGRAM-DATE-TIME for the covering segment.
type Ad struct {
	StartOffsetSec       float64 `json:"startOffsetSec"`
	StartOffsetHms       string  `json:"startOffsetHms"`
	EndOffsetSec         float64 `json:"endOffsetSec"`
	EndOffsetHms         string  `json:"endOffsetHms"`
	StartProgramDateTime *string `json:"startProgramDateTime"`
	EndProgramDateTime   *string `json:"endProgramDateTime"`
}

type Debug struct {
	Enabled         bool    `json:"enabled"`
	LogosOutputDir  *string `json:"logosOutputDir"`
	LogoSampleCount int     `json:"logoSampleCount"`
}

// NewAds converts intervals into report entries, deriving program
// date-times from pl.
func NewAds(pl *playlist.Playlist, ivs []intervals.Interval) []Ad {
	ads := make([]Ad, 0, len(ivs))
	for _, iv := range ivs {
		ads = append(ads, Ad{
			StartOffsetSec:       iv.StartSec,
			StartOffsetHms:       FormatHms(iv.StartSec),
			EndOffsetSec:         iv.EndSec,
			EndOffsetHms:         FormatHms(iv.EndSec),
			StartProgramDateTime: pdtAt(pl, iv.StartSec),
			EndProgramDateTime:   pdtAt(pl, iv.EndSec),
		})
	}
	return ads
}

func pdtAt(pl *playlist.Playlist, offset float64) *string {
	s, ok := pl.ProgramDateTimeAt(offset)
	if !ok {
		return nil
	}
	return &s
}

// FormatHms rounds seconds to the nearest integer (half away from zero)
// and formats them as HH:MM:SS. Negative input formats as 00:00:00; hours
// are not wrapped.
func FormatHms(sec float64) string {
	s := int64(math.Round(sec))
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
