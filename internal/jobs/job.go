// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package jobs runs detection requests submitted through the API with
// bounded concurrency and records their outcome.
package jobs

import (
	"time"

	"github.com/ManuGH/adscan/internal/config"
	"github.com/ManuGH/adscan/internal/report"
)

// State is the lifecycle position of a job.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

var allStates = []State{StateQueued, StateRunning, StateSucceeded, StateFailed}

// Done reports whether s is terminal.
func (s State) Done() bool { return s == StateSucceeded || s == StateFailed }

// Job is a snapshot of one submission.
type Job struct {
	ID         string         `json:"id"`
	State      State          `json:"state"`
	Request    config.Detect  `json:"request"`
	Error      string         `json:"error,omitempty"`
	ErrorKind  string         `json:"errorKind,omitempty"`
	Result     *report.Result `json:"result,omitempty"`
	ResultPath string         `json:"resultPath,omitempty"`
	StoredAds  int            `json:"storedAds"`
	CreatedAt  time.Time      `json:"createdAt"`
	StartedAt  *time.Time     `json:"startedAt,omitempty"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
}
