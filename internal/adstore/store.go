// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package adstore keeps detected ad intervals per channel on an absolute
// (epoch millisecond) timeline so that later playback can skip them.
package adstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/adscan/internal/config"
	"github.com/ManuGH/adscan/internal/faults"
)

// ErrInvalidChannel is returned for channel names that normalise to "".
var ErrInvalidChannel = errors.New("adstore: invalid channel")

// Interval is one ad window in epoch milliseconds, End exclusive.
type Interval struct {
	StartMs int64 `json:"startMs"`
	EndMs   int64 `json:"endMs"`
}

// Store persists merged intervals per channel.
type Store interface {
	// Merge adds ivs to the channel. Overlapping and touching intervals
	// coalesce and the stored list stays sorted by start.
	Merge(ctx context.Context, channel string, ivs []Interval) error
	// List returns the stored intervals that overlap [fromMs, toMs).
	List(ctx context.Context, channel string, fromMs, toMs int64) ([]Interval, error)
	Close() error
}

// Key canonicalises a channel name: NFKC, case folded, inner whitespace
// collapsed to single spaces.
func Key(channel string) (string, error) {
	k := norm.NFKC.String(channel)
	k = cases.Fold().String(k)
	k = strings.Join(strings.Fields(k), " ")
	if k == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}
	return k, nil
}

// MergeIntervals returns the union of existing and add as a sorted list of
// disjoint, non-touching intervals. Empty or inverted inputs are dropped.
func MergeIntervals(existing, add []Interval) []Interval {
	all := make([]Interval, 0, len(existing)+len(add))
	for _, iv := range slices.Concat(existing, add) {
		if iv.EndMs > iv.StartMs {
			all = append(all, iv)
		}
	}
	slices.SortFunc(all, func(a, b Interval) int {
		if a.StartMs != b.StartMs {
			return cmpInt64(a.StartMs, b.StartMs)
		}
		return cmpInt64(a.EndMs, b.EndMs)
	})

	out := all[:0]
	for _, iv := range all {
		if n := len(out); n > 0 && iv.StartMs <= out[n-1].EndMs {
			out[n-1].EndMs = max(out[n-1].EndMs, iv.EndMs)
			continue
		}
		out = append(out, iv)
	}
	return out
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Window filters a sorted list to the intervals overlapping [fromMs, toMs).
// toMs <= 0 means unbounded.
func Window(ivs []Interval, fromMs, toMs int64) []Interval {
	if toMs <= 0 {
		toMs = math.MaxInt64
	}
	out := []Interval{}
	for _, iv := range ivs {
		if iv.EndMs > fromMs && iv.StartMs < toMs {
			out = append(out, iv)
		}
	}
	return out
}

// Open builds the configured backend.
func Open(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(ctx, RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}, logger)
	case "sqlite":
		return NewSQLite(ctx, cfg.SQLitePath, DefaultSQLiteConfig())
	case "badger":
		return NewBadger(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", faults.ErrConfiguration, cfg.Backend)
	}
}
