// SPDX-License-Identifier: MIT
package playlist

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ManuGH/adscan/internal/faults"
)

const (
	tagExtInf = "#EXTINF:"
	tagPDT    = "#EXT-X-PROGRAM-DATE-TIME:"
)

// Parse builds the segment timeline from media playlist text.
//
// The most recent program date-time is attached to the next media line. A
// date-time that follows a media line, while no EXTINF is pending and the
// previous segment has none, belongs to that previous segment. Media lines
// without a valid preceding EXTINF are ignored.
func Parse(text string) (*Playlist, error) {
	var (
		segs       []Segment
		pendingDur = -1.0
		pendingPDT string
		offset     float64
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, tagExtInf):
			pendingDur = parseExtInf(line[len(tagExtInf):])

		case strings.HasPrefix(line, tagPDT):
			v := strings.TrimSpace(line[len(tagPDT):])
			if pendingDur < 0 && len(segs) > 0 && segs[len(segs)-1].ProgramDateTime == "" {
				segs[len(segs)-1].ProgramDateTime = v
				continue
			}
			pendingPDT = v

		case strings.HasPrefix(line, "#"):
			continue

		default:
			if pendingDur < 0 {
				continue
			}
			segs = append(segs, Segment{
				URI:             line,
				DurationSec:     pendingDur,
				ProgramDateTime: pendingPDT,
				StartOffsetSec:  offset,
				EndOffsetSec:    offset + pendingDur,
			})
			offset += pendingDur
			pendingDur = -1
			pendingPDT = ""
		}
	}

	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: playlist has no media segments", faults.ErrSourceUnavailable)
	}
	if offset <= 0 {
		return nil, fmt.Errorf("%w: playlist total duration is %g", faults.ErrSourceUnavailable, offset)
	}
	return &Playlist{Segments: segs, TotalDurationSec: offset}, nil
}

// parseExtInf returns the duration before the first comma, or -1 when it is
// missing, unparseable, negative or not finite.
func parseExtInf(v string) float64 {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return -1
	}
	return d
}
