// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package faults classifies fatal pipeline failures.
//
// Components wrap one of the sentinels with fmt.Errorf("...: %w", ...) and
// callers use errors.Is to decide on exit codes and HTTP status.
package faults

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid options (bad corner, out-of-range ratios, exit > enter).
	ErrConfiguration = errors.New("configuration error")
	// ErrSourceUnavailable marks a playlist that cannot be fetched or parsed into segments.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrInsufficientSamples marks runs with fewer than MinSamples timestamps or readable frames.
	ErrInsufficientSamples = errors.New("insufficient samples")
	// ErrPoolFailure marks a parallel sampling pool that could not run to completion.
	ErrPoolFailure = errors.New("parallel pool failure")
)

// MinSamples is the smallest number of timestamps (and of readable frames)
// a training pass accepts.
const MinSamples = 5

// Exit codes used by the CLI.
const (
	ExitOK                  = 0
	ExitGeneric             = 1
	ExitConfiguration       = 2
	ExitSourceUnavailable   = 3
	ExitInsufficientSamples = 4
	ExitPoolFailure         = 5
)

// DecodeError reports a single frame that could not be read. It is recovered
// locally: the sample is skipped during training and counted as "logo absent"
// during refinement.
type DecodeError struct {
	OffsetSec float64
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame at %.3fs: %v", e.OffsetSec, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecode reports whether err is a recoverable single-frame failure.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// ExitCode maps an error to the CLI exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrSourceUnavailable):
		return ExitSourceUnavailable
	case errors.Is(err, ErrInsufficientSamples):
		return ExitInsufficientSamples
	case errors.Is(err, ErrPoolFailure):
		return ExitPoolFailure
	default:
		return ExitGeneric
	}
}

// Kind returns a short label for metrics and API responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrInsufficientSamples):
		return "insufficient_samples"
	case errors.Is(err, ErrPoolFailure):
		return "pool_failure"
	default:
		return "error"
	}
}
