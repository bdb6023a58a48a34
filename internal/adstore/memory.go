// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package adstore

import (
	"context"
	"sync"
)

// MemoryStore keeps intervals in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	channels map[string][]Interval
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{channels: make(map[string][]Interval)}
}

func (s *MemoryStore) Merge(_ context.Context, channel string, ivs []Interval) error {
	key, err := Key(channel)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[key] = MergeIntervals(s.channels[key], ivs)
	return nil
}

func (s *MemoryStore) List(_ context.Context, channel string, fromMs, toMs int64) ([]Interval, error) {
	key, err := Key(channel)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Window(s.channels[key], fromMs, toMs), nil
}

func (s *MemoryStore) Close() error { return nil }
