// SPDX-License-Identifier: MIT

// Package playlist parses HLS media playlists into a timeline of segments
// and maps stream offsets to wall-clock program date-times.
package playlist

import (
	"sort"
)

// Segment is one media entry of the playlist. Offsets are cumulative sums
// of the EXTINF durations.
type Segment struct {
	URI             string
	DurationSec     float64
	ProgramDateTime string // raw EXT-X-PROGRAM-DATE-TIME value, empty when absent
	StartOffsetSec  float64
	EndOffsetSec    float64
}

// Playlist is the parsed, immutable timeline.
type Playlist struct {
	Segments         []Segment
	TotalDurationSec float64
}

// segmentAt returns the index of the first segment whose end lies after
// offset; offsets at or past the end map to the last segment.
func (p *Playlist) segmentAt(offset float64) int {
	i := sort.Search(len(p.Segments), func(i int) bool {
		return p.Segments[i].EndOffsetSec > offset
	})
	if i == len(p.Segments) {
		i = len(p.Segments) - 1
	}
	return i
}

// EpochMsAt maps an offset to epoch milliseconds. The containing segment's
// program date-time is used when it has one; otherwise the nearest earlier
// tagged segment is carried forward by the media duration since its start.
// Without an earlier tag the first later one is extrapolated backwards. ok
// is false for negative offsets and playlists without a parseable date-time.
// Offsets past the end are clamped.
func (p *Playlist) EpochMsAt(offset float64) (ms int64, ok bool) {
	if p == nil || len(p.Segments) == 0 || offset < 0 {
		return 0, false
	}
	offset = min(offset, p.TotalDurationSec)
	anchor, ok := p.anchorFor(p.segmentAt(offset))
	if !ok {
		return 0, false
	}
	return anchor.epochMs + int64((offset-anchor.offsetSec)*1000), true
}

type pdtAnchor struct {
	epochMs   int64
	offsetSec float64
}

func (p *Playlist) anchorFor(idx int) (pdtAnchor, bool) {
	for i := idx; i >= 0; i-- {
		if a, ok := p.Segments[i].anchor(); ok {
			return a, true
		}
	}
	for i := idx + 1; i < len(p.Segments); i++ {
		if a, ok := p.Segments[i].anchor(); ok {
			return a, true
		}
	}
	return pdtAnchor{}, false
}

func (s Segment) anchor() (pdtAnchor, bool) {
	if s.ProgramDateTime == "" {
		return pdtAnchor{}, false
	}
	t, err := ParsePDT(s.ProgramDateTime)
	if err != nil {
		return pdtAnchor{}, false
	}
	return pdtAnchor{epochMs: t.UnixMilli(), offsetSec: s.StartOffsetSec}, true
}

// ProgramDateTimeAt formats EpochMsAt as YYYY-MM-DDTHH:MM:SS.mmm+0000.
func (p *Playlist) ProgramDateTimeAt(offset float64) (string, bool) {
	ms, ok := p.EpochMsAt(offset)
	if !ok {
		return "", false
	}
	return FormatPDT(ms), true
}
