// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package frames

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// Corner identifies the frame corner that carries the broadcaster logo.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

var cornerNames = [...]string{"top_left", "top_right", "bottom_left", "bottom_right"}

// String returns the report name of the corner.
func (c Corner) String() string {
	if c < TopLeft || c > BottomRight {
		return fmt.Sprintf("corner(%d)", int(c))
	}
	return cornerNames[c]
}

// ParseCorner accepts tl/tr/bl/br, the long names and the indexes 0..3.
func ParseCorner(s string) (Corner, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tl", "top_left", "top-left", "0":
		return TopLeft, nil
	case "tr", "top_right", "top-right", "1":
		return TopRight, nil
	case "bl", "bottom_left", "bottom-left", "2":
		return BottomLeft, nil
	case "br", "bottom_right", "bottom-right", "3":
		return BottomRight, nil
	}
	return TopLeft, fmt.Errorf("unknown corner %q (use tl, tr, bl or br)", s)
}

// ROIRect returns the square corner region inside bounds whose side is
// round(width*pct), clamped to [1, min(width, height)]. pct is clamped to [0.01, 1].
func ROIRect(bounds image.Rectangle, c Corner, pct float64) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	pct = math.Min(1, math.Max(0.01, pct))
	side := int(math.Round(float64(w) * pct))
	side = max(1, min(side, min(w, h)))

	x, y := bounds.Min.X, bounds.Min.Y
	switch c {
	case TopRight:
		x = bounds.Max.X - side
	case BottomLeft:
		y = bounds.Max.Y - side
	case BottomRight:
		x = bounds.Max.X - side
		y = bounds.Max.Y - side
	}
	return image.Rect(x, y, x+side, y+side)
}
