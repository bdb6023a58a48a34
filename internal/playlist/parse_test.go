// SPDX-License-Identifier: MIT
package playlist

import (
	"testing"

	"github.com/ManuGH/adscan/internal/faults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vodPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-PROGRAM-DATE-TIME:2025-03-01T20:00:00.000Z
#EXTINF:6.000,
seg0.ts
#EXT-X-PROGRAM-DATE-TIME:2025-03-01T20:00:06.000Z
#EXTINF:6.000,
seg1.ts
#EXTINF:4.5,
seg2.ts
#EXT-X-ENDLIST
`

func TestParseTimeline(t *testing.T) {
	pl, err := Parse(vodPlaylist)
	require.NoError(t, err)
	require.Len(t, pl.Segments, 3)

	assert.InDelta(t, 16.5, pl.TotalDurationSec, 1e-9)
	assert.Equal(t, "seg0.ts", pl.Segments[0].URI)
	assert.Equal(t, "2025-03-01T20:00:06.000Z", pl.Segments[1].ProgramDateTime)
	assert.Empty(t, pl.Segments[2].ProgramDateTime)

	for i := 1; i < len(pl.Segments); i++ {
		assert.Equal(t, pl.Segments[i-1].EndOffsetSec, pl.Segments[i].StartOffsetSec, "segments must be contiguous")
	}
	assert.Equal(t, pl.TotalDurationSec, pl.Segments[2].EndOffsetSec)
}

func TestParsePDTAfterURIAttachesToPreviousSegment(t *testing.T) {
	text := "#EXTM3U\r\n#EXTINF:10,\r\na.ts\r\n#EXT-X-PROGRAM-DATE-TIME:2025-01-01T00:00:00Z\r\n#EXTINF:10,\r\nb.ts\r\n"
	pl, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01T00:00:00Z", pl.Segments[0].ProgramDateTime)
	assert.Empty(t, pl.Segments[1].ProgramDateTime)
}

func TestParseIgnoresMediaWithoutExtInf(t *testing.T) {
	text := "#EXTM3U\norphan.ts\n#EXTINF:abc,\nbad.ts\n#EXTINF:8,title\n\nok.ts\n"
	pl, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, pl.Segments, 1)
	assert.Equal(t, "ok.ts", pl.Segments[0].URI)
	assert.Equal(t, 8.0, pl.Segments[0].DurationSec)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"html", "<html><body>404</body></html>"},
		{"tags only", "#EXTM3U\n#EXT-X-ENDLIST\n"},
		{"zero duration", "#EXTM3U\n#EXTINF:0,\na.ts\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, faults.ErrSourceUnavailable)
		})
	}
}

func FuzzParse(f *testing.F) {
	f.Add(vodPlaylist)
	f.Add("#EXTINF:1,\nx\n#EXT-X-PROGRAM-DATE-TIME:bogus\n")
	f.Add("")

	f.Fuzz(func(t *testing.T, text string) {
		pl, err := Parse(text)
		if err != nil {
			return
		}
		var offset float64
		for _, s := range pl.Segments {
			if s.StartOffsetSec != offset {
				t.Fatalf("segment %q starts at %v, want %v", s.URI, s.StartOffsetSec, offset)
			}
			offset = s.EndOffsetSec
		}
		if pl.TotalDurationSec <= 0 {
			t.Fatalf("total duration %v must be positive", pl.TotalDurationSec)
		}
	})
}
