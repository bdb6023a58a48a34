// SPDX-License-Identifier: MIT
package playlist

import (
	"fmt"
	"strings"
	"time"
)

const outputLayout = "2006-01-02T15:04:05.000-0700"

// Fractional seconds are accepted after the seconds field even though the
// layouts do not spell them out.
var pdtLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
}

// ParsePDT parses an EXT-X-PROGRAM-DATE-TIME value. Accepted zones are Z,
// ±HH:MM and ±HHMM; a missing zone means UTC.
func ParsePDT(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range pdtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid program date-time %q", s)
}

// FormatPDT renders epoch milliseconds as YYYY-MM-DDTHH:MM:SS.mmm+0000.
func FormatPDT(epochMs int64) string {
	return time.UnixMilli(epochMs).UTC().Format(outputLayout)
}
