// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sampling

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule(t *testing.T) {
	offsets := Schedule(600, 5)
	require.Len(t, offsets, 120)
	assert.Equal(t, 0.0, offsets[0])
	assert.Equal(t, 595.0, offsets[119])

	assert.Len(t, Schedule(601, 5), 121)
	assert.Len(t, Schedule(20, 5), 4, "offsets are strictly below total")
	assert.Empty(t, Schedule(0, 5))
	assert.Empty(t, Schedule(10, 0))
}

func TestBuckets(t *testing.T) {
	offsets := Schedule(100, 1)
	// shuffle deterministically to prove per-bucket sorting
	jobs := Jobs(offsets)
	sort.Slice(jobs, func(i, k int) bool { return (jobs[i].Slot*37)%100 < (jobs[k].Slot*37)%100 })

	buckets := Buckets(jobs, 100, 4)
	require.Len(t, buckets, 4)

	seen := 0
	for b, bucket := range buckets {
		assert.Len(t, bucket, 25)
		for i, j := range bucket {
			assert.Equal(t, b, int(j.OffsetSec/25), "offset %v in wrong bucket", j.OffsetSec)
			if i > 0 {
				assert.Less(t, bucket[i-1].OffsetSec, j.OffsetSec)
			}
			seen++
		}
	}
	assert.Equal(t, 100, seen)
}

func TestBucketsClampsEdges(t *testing.T) {
	jobs := []Job{{Slot: 0, OffsetSec: 100}, {Slot: 1, OffsetSec: -3}}
	buckets := Buckets(jobs, 100, 3)
	assert.Equal(t, []Job{{Slot: 0, OffsetSec: 100}}, buckets[2])
	assert.Equal(t, []Job{{Slot: 1, OffsetSec: -3}}, buckets[0])

	single := Buckets(jobs, 0, 0)
	require.Len(t, single, 1)
	assert.Len(t, single[0], 2)
}

func TestWorkerCount(t *testing.T) {
	assert.Equal(t, 3, WorkerCount(8, 3))
	assert.Equal(t, 2, WorkerCount(2, 50))
	assert.Equal(t, 1, WorkerCount(4, 0))
	assert.GreaterOrEqual(t, WorkerCount(0, 1000), 1)
}
