// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package detector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/adscan/internal/config"
	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/frames"
	"github.com/ManuGH/adscan/internal/frames/framestest"
	"github.com/ManuGH/adscan/internal/playlist"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var pdtBase = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

// writePlaylist writes a media playlist of n ten-second segments, each
// carrying its program date-time.
func writePlaylist(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n")
	for i := 0; i < n; i++ {
		ts := pdtBase.Add(time.Duration(i) * 10 * time.Second)
		fmt.Fprintf(&b, "#EXT-X-PROGRAM-DATE-TIME:%s\n#EXTINF:10.0,\nseg%03d.ts\n", ts.Format("2006-01-02T15:04:05.000Z"), i)
	}
	b.WriteString("#EXT-X-ENDLIST\n")
	path := filepath.Join(t.TempDir(), "index.m3u8")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

// adBreak hides the logo during [120s, 180s).
func adBreak(sec float64) bool { return sec < 120 || sec >= 180 }

func newDetector(src frames.Source) (*Detector, *atomic.Int32) {
	var calls atomic.Int32
	logger := zerolog.Nop()
	d := New(Options{
		Playlists: playlist.NewFetcher(nil, logger),
		Sources: func(string) (frames.Source, error) {
			calls.Add(1)
			return src, nil
		},
		Logger: &logger,
	})
	return d, &calls
}

func detectOptions(source string) config.Detect {
	opts := config.DefaultDetect()
	opts.Source = source
	opts.Corner = "tl"
	opts.MinAdSec = 30
	opts.Threads = 4
	opts.Output = "ads.json"
	return opts
}

// strategyCases configures every strategy for the synthetic recording. The
// logo corner renders identically in every program frame, so DBSCAN gets a
// radius that only joins identical points and LOF a neighbourhood larger
// than the twelve ad samples.
var strategyCases = []struct {
	strategy string
	tune     func(o *config.Detect)
}{
	{config.StrategyDistance, nil},
	{config.StrategyDBSCAN, func(o *config.Detect) { o.DBSCANEps = 0.05 }},
	{config.StrategyLOF, func(o *config.Detect) { o.LOFK = 20 }},
	{config.StrategyKNN, nil},
	{config.StrategyTemplate, nil},
}

func strategyOptions(t *testing.T, strategy string, tune func(*config.Detect)) config.Detect {
	t.Helper()
	opts := detectOptions(writePlaylist(t, 60))
	opts.Strategy = strategy
	if tune != nil {
		tune(&opts)
	}
	return opts
}

func TestRunDetectsAdWindow(t *testing.T) {
	for _, tc := range strategyCases {
		t.Run(tc.strategy, func(t *testing.T) {
			src := framestest.NewSynthetic(adBreak)
			d, _ := newDetector(src)
			opts := strategyOptions(t, tc.strategy, tc.tune)

			out, err := d.Run(context.Background(), opts)
			require.NoError(t, err)

			res := out.Result
			assert.Equal(t, 600.0, res.TotalDurationSec)
			assert.Equal(t, 120, res.Training.SampleCount)
			assert.Equal(t, "top_left", res.Training.LogoCorner)
			assert.Equal(t, tc.strategy, res.Training.Detection.Strategy)
			assert.Equal(t, 1, res.Training.Detection.EnterConsecutive)

			require.Len(t, res.Ads, 1)
			ad := res.Ads[0]
			assert.Equal(t, 120.0, ad.StartOffsetSec)
			assert.Equal(t, 180.0, ad.EndOffsetSec)
			assert.Equal(t, "00:02:00", ad.StartOffsetHms)
			assert.Equal(t, "00:03:00", ad.EndOffsetHms)
			require.NotNil(t, ad.StartProgramDateTime)
			require.NotNil(t, ad.EndProgramDateTime)
			assert.Equal(t, "2024-03-01T20:02:00.000+0000", *ad.StartProgramDateTime)
			assert.Equal(t, "2024-03-01T20:03:00.000+0000", *ad.EndProgramDateTime)

			assert.False(t, res.Debug.Enabled)
			assert.Nil(t, res.Debug.LogosOutputDir)
			assert.Equal(t, 108, res.Debug.LogoSampleCount)
		})
	}
}

func runCoarseAndRefined(t *testing.T, logoAt func(float64) bool, opts config.Detect) (coarse, refined *Outcome) {
	t.Helper()
	coarseOpts := opts
	coarseOpts.Refine = false
	d, _ := newDetector(framestest.NewSynthetic(logoAt))
	coarse, err := d.Run(context.Background(), coarseOpts)
	require.NoError(t, err)

	d, _ = newDetector(framestest.NewSynthetic(logoAt))
	refined, err = d.Run(context.Background(), opts)
	require.NoError(t, err)
	return coarse, refined
}

func TestRunRefinesBetweenSamples(t *testing.T) {
	// The break starts and ends between two five-second samples.
	offGrid := func(sec float64) bool { return sec < 117 || sec >= 176 }

	for _, tc := range strategyCases {
		t.Run(tc.strategy, func(t *testing.T) {
			opts := strategyOptions(t, tc.strategy, tc.tune)
			opts.RefineStepSec = 2.5

			coarse, refined := runCoarseAndRefined(t, offGrid, opts)
			require.Len(t, coarse.Intervals, 1)
			require.Len(t, refined.Intervals, 1)
			c, r := coarse.Intervals[0], refined.Intervals[0]

			assert.GreaterOrEqual(t, r.StartSec, c.StartSec-opts.RefineWindowSec)
			assert.LessOrEqual(t, r.StartSec, c.StartSec)
			assert.GreaterOrEqual(t, r.EndSec, c.EndSec-opts.RefineWindowSec)
			assert.LessOrEqual(t, r.EndSec, c.EndSec)

			assert.Equal(t, 117.5, r.StartSec)
			assert.Equal(t, 177.5, r.EndSec)
			assert.Equal(t, 117.5, refined.Result.Ads[0].StartOffsetSec)
		})
	}
}

func TestRunRefinementRevertsShortWindow(t *testing.T) {
	// A logo flash between samples would end the refined ad after 32.5 s,
	// below the minimum duration.
	flash := func(sec float64) bool { return adBreak(sec) || (sec >= 152 && sec < 153.5) }

	for _, tc := range strategyCases {
		t.Run(tc.strategy, func(t *testing.T) {
			opts := strategyOptions(t, tc.strategy, tc.tune)
			opts.RefineStepSec = 2.5
			opts.MinAdSec = 40

			coarse, refined := runCoarseAndRefined(t, flash, opts)
			require.Len(t, coarse.Intervals, 1)
			assert.Equal(t, 180.0, coarse.Intervals[0].EndSec)
			assert.Equal(t, coarse.Intervals, refined.Intervals)
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	path := writePlaylist(t, 60)
	first, err := runOnce(t, path)
	require.NoError(t, err)
	second, err := runOnce(t, path)
	require.NoError(t, err)
	assert.Equal(t, first.Intervals, second.Intervals)
	assert.Equal(t, first.Result.Training, second.Result.Training)
}

func runOnce(t *testing.T, path string) (*Outcome, error) {
	t.Helper()
	d, _ := newDetector(framestest.NewSynthetic(adBreak))
	return d.Run(context.Background(), detectOptions(path))
}

func TestRunWithoutRefinementKeepsCoarseBoundaries(t *testing.T) {
	d, _ := newDetector(framestest.NewSynthetic(adBreak))
	opts := detectOptions(writePlaylist(t, 60))
	opts.Refine = false

	out, err := d.Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, out.Intervals, 1)
	iv := out.Intervals[0]
	// Smoothing may delay the coarse start by one sample.
	assert.GreaterOrEqual(t, iv.StartSec, 120.0)
	assert.LessOrEqual(t, iv.StartSec, 125.0)
	assert.Equal(t, 180.0, iv.EndSec)
}

func TestRunRefinementSamplesStayInWindows(t *testing.T) {
	src := framestest.NewSynthetic(adBreak)
	d, _ := newDetector(src)
	opts := detectOptions(writePlaylist(t, 60))
	opts.Threads = 1

	out, err := d.Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, out.Intervals, 1)

	calls := src.Calls()
	require.Greater(t, len(calls), 120)
	for _, c := range calls[120:] {
		inStart := c >= 90 && c <= 125
		inEnd := c >= 150 && c <= 180
		assert.True(t, inStart || inEnd, "refine probe at %v outside the probe windows", c)
	}
}

// closingSource lets the first n sessions open and fails afterwards.
type closingSource struct {
	frames.Source
	allowed atomic.Int32
}

func (s *closingSource) Open(ctx context.Context) (frames.Session, error) {
	if s.allowed.Add(-1) < 0 {
		return nil, framestest.ErrOpen
	}
	return s.Source.Open(ctx)
}

func TestRunRefinePoolFailureKeepsCoarseBoundaries(t *testing.T) {
	path := writePlaylist(t, 60)

	coarseDet, _ := newDetector(framestest.NewSynthetic(adBreak))
	coarseOpts := detectOptions(path)
	coarseOpts.Refine = false
	coarse, err := coarseDet.Run(context.Background(), coarseOpts)
	require.NoError(t, err)

	src := &closingSource{Source: framestest.NewSynthetic(adBreak)}
	src.allowed.Store(4)
	d, _ := newDetector(src)
	out, err := d.Run(context.Background(), detectOptions(path))
	require.NoError(t, err)
	assert.Equal(t, coarse.Intervals, out.Intervals)
}

func TestRunDebugExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	d, _ := newDetector(framestest.NewSynthetic(adBreak))
	opts := detectOptions(writePlaylist(t, 60))
	opts.Debug = true
	opts.DebugDir = dir

	out, err := d.Run(context.Background(), opts)
	require.NoError(t, err)
	require.NotNil(t, out.Result.Debug.LogosOutputDir)
	assert.Equal(t, dir, *out.Result.Debug.LogosOutputDir)

	samples, err := os.ReadDir(filepath.Join(dir, "samples"))
	require.NoError(t, err)
	assert.Len(t, samples, 120)
	assert.Equal(t, "sample_000000_t0.png", samples[0].Name())

	logos, err := os.ReadDir(filepath.Join(dir, "logos"))
	require.NoError(t, err)
	assert.Len(t, logos, out.Result.Debug.LogoSampleCount)
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(t *testing.T, o *config.Detect)
		src         func() frames.Source
		want        error
		wantExit    int
		wantFactory int32
	}{
		{
			name:     "missing corner",
			mutate:   func(t *testing.T, o *config.Detect) { o.Corner = "" },
			want:     faults.ErrConfiguration,
			wantExit: faults.ExitConfiguration,
		},
		{
			name: "exit multiplier above enter",
			mutate: func(t *testing.T, o *config.Detect) {
				o.EnterMult, o.ExitMult = 1.0, 1.5
			},
			want:     faults.ErrConfiguration,
			wantExit: faults.ExitConfiguration,
		},
		{
			name: "missing playlist",
			mutate: func(t *testing.T, o *config.Detect) {
				o.Source = filepath.Join(t.TempDir(), "nope.m3u8")
			},
			want:     faults.ErrSourceUnavailable,
			wantExit: faults.ExitSourceUnavailable,
		},
		{
			name: "malformed playlist",
			mutate: func(t *testing.T, o *config.Detect) {
				path := filepath.Join(t.TempDir(), "bad.m3u8")
				require.NoError(t, os.WriteFile(path, []byte("#EXTM3U\n#EXT-X-ENDLIST\n"), 0o600))
				o.Source = path
			},
			want:     faults.ErrSourceUnavailable,
			wantExit: faults.ExitSourceUnavailable,
		},
		{
			name:     "too few timestamps",
			mutate:   func(t *testing.T, o *config.Detect) { o.Source = writePlaylist(t, 2) },
			want:     faults.ErrInsufficientSamples,
			wantExit: faults.ExitInsufficientSamples,
			// the source is built before sampling is scheduled
			wantFactory: 1,
		},
		{
			name: "every frame unreadable",
			src: func() frames.Source {
				s := framestest.NewSynthetic(adBreak)
				s.FailAt = func(float64) bool { return true }
				return s
			},
			want:        faults.ErrInsufficientSamples,
			wantExit:    faults.ExitInsufficientSamples,
			wantFactory: 1,
		},
		{
			name: "sessions cannot open",
			src: func() frames.Source {
				s := framestest.NewSynthetic(adBreak)
				s.FailOpen = true
				return s
			},
			want:        faults.ErrPoolFailure,
			wantExit:    faults.ExitPoolFailure,
			wantFactory: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var src frames.Source = framestest.NewSynthetic(adBreak)
			if tt.src != nil {
				src = tt.src()
			}
			d, factory := newDetector(src)
			opts := detectOptions(writePlaylist(t, 60))
			if tt.mutate != nil {
				tt.mutate(t, &opts)
			}

			out, err := d.Run(context.Background(), opts)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.wantExit, faults.ExitCode(err))
			assert.Equal(t, tt.wantFactory, factory.Load())
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d, _ := newDetector(framestest.NewSynthetic(adBreak))
	_, err := d.Run(ctx, detectOptions(writePlaylist(t, 60)))
	require.Error(t, err)
}
