// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package adstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps intervals in an embedded Badger database.
//
// Layout: key = "ads:<channel>\x00<start big-endian>", value = end (big-endian).
// Keys of one channel sort by start, so List is a single prefix scan.
type BadgerStore struct {
	db *badger.DB
	mu sync.Mutex // serialises read-modify-write merges
}

// NewBadger opens (and creates when missing) the database directory at path.
func NewBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open failed: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func badgerPrefix(key string) []byte {
	return append([]byte("ads:"+key), 0)
}

func badgerKey(prefix []byte, startMs int64) []byte {
	k := make([]byte, len(prefix)+8)
	copy(k, prefix)
	binary.BigEndian.PutUint64(k[len(prefix):], uint64(startMs))
	return k
}

func badgerEnd(endMs int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(endMs))
}

// scanChannel returns the stored intervals and their keys in start order.
func scanChannel(ctx context.Context, txn *badger.Txn, prefix []byte) ([]Interval, [][]byte, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var (
		ivs  []Interval
		keys [][]byte
	)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		item := it.Item()
		k := item.KeyCopy(nil)
		if len(k) != len(prefix)+8 {
			continue
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("badger: read interval: %w", err)
		}
		if len(v) != 8 {
			return nil, nil, fmt.Errorf("badger: corrupt interval value for %q", k)
		}
		ivs = append(ivs, Interval{
			StartMs: int64(binary.BigEndian.Uint64(k[len(prefix):])),
			EndMs:   int64(binary.BigEndian.Uint64(v)),
		})
		keys = append(keys, k)
	}
	return ivs, keys, nil
}

func (s *BadgerStore) Merge(ctx context.Context, channel string, ivs []Interval) error {
	key, err := Key(channel)
	if err != nil {
		return err
	}
	prefix := badgerPrefix(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.Update(func(txn *badger.Txn) error {
		existing, keys, err := scanChannel(ctx, txn, prefix)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		for _, iv := range MergeIntervals(existing, ivs) {
			if err := txn.Set(badgerKey(prefix, iv.StartMs), badgerEnd(iv.EndMs)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger: merge %q: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) List(ctx context.Context, channel string, fromMs, toMs int64) ([]Interval, error) {
	key, err := Key(channel)
	if err != nil {
		return nil, err
	}
	var ivs []Interval
	err = s.db.View(func(txn *badger.Txn) error {
		var err error
		ivs, _, err = scanChannel(ctx, txn, badgerPrefix(key))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger: list %q: %w", key, err)
	}
	return Window(ivs, fromMs, toMs), nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
