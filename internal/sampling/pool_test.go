// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sampling

import (
	"context"
	"testing"

	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/frames"
	"github.com/ManuGH/adscan/internal/frames/framestest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func extractor() frames.Extractor {
	return frames.Extractor{Corner: frames.TopLeft, WidthPct: 0.15}
}

func TestRunFillsSlotsInOrder(t *testing.T) {
	src := framestest.NewSynthetic(func(float64) bool { return true })
	src.FailAt = func(t float64) bool { return t == 20 }

	offsets := Schedule(60, 5)
	res, err := Run(context.Background(), src, extractor(), Jobs(offsets), 60, Options{Workers: 3, Phase: "training", Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.Len(t, res, len(offsets))

	for i, r := range res {
		assert.Equal(t, i, r.Slot)
		assert.Equal(t, offsets[i], r.OffsetSec)
		if r.OffsetSec == 20 {
			assert.False(t, r.OK)
			assert.True(t, faults.IsDecode(r.Err))
			continue
		}
		assert.True(t, r.OK)
		assert.Len(t, r.Observation.Histogram, frames.HistSize)
	}
	assert.Equal(t, 3, src.Opened(), "one session per worker")
}

func TestRunWorkersSeekForward(t *testing.T) {
	src := framestest.NewSynthetic(nil)
	_, err := Run(context.Background(), src, extractor(), Jobs(Schedule(40, 5)), 40, Options{Workers: 1, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 10, 15, 20, 25, 30, 35}, src.Calls())
}

func TestRunOpenFailureIsPoolFailure(t *testing.T) {
	src := framestest.NewSynthetic(nil)
	src.FailOpen = true
	_, err := Run(context.Background(), src, extractor(), Jobs(Schedule(30, 5)), 30, Options{Workers: 2, Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrPoolFailure)
	assert.ErrorIs(t, err, framestest.ErrOpen)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, framestest.NewSynthetic(nil), extractor(), Jobs(Schedule(30, 5)), 30, Options{Workers: 2, Logger: zerolog.Nop()})
	require.Error(t, err)
}

func TestRunEmpty(t *testing.T) {
	res, err := Run(context.Background(), framestest.NewSynthetic(nil), extractor(), nil, 10, Options{})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestRunRejectsBadSlots(t *testing.T) {
	_, err := Run(context.Background(), framestest.NewSynthetic(nil), extractor(), []Job{{Slot: 5}}, 10, Options{})
	assert.Error(t, err)
}
