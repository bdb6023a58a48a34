// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build !gocv

package frames

import "errors"

// ErrGoCVUnavailable is returned when the binary was built without the gocv tag.
var ErrGoCVUnavailable = errors.New("gocv backend not compiled in (build with -tags gocv)")

// NewGoCVSource reports that the OpenCV backend is unavailable in this build.
func NewGoCVSource(string, Options) (Source, error) {
	return nil, ErrGoCVUnavailable
}
