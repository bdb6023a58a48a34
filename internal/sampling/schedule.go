// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sampling

import (
	"math"
	"sort"
)

// Job is one frame request. Slot is the job's position in the result arena.
type Job struct {
	Slot      int
	OffsetSec float64
}

// Schedule returns the offsets 0, every, 2*every, ... strictly below total.
func Schedule(total, every float64) []float64 {
	if total <= 0 || every <= 0 {
		return nil
	}
	n := int(math.Ceil(total / every))
	out := make([]float64, 0, n)
	for i := 0; ; i++ {
		t := float64(i) * every
		if t >= total {
			break
		}
		out = append(out, t)
	}
	return out
}

// Jobs wraps offsets into jobs whose slots follow the slice order.
func Jobs(offsets []float64) []Job {
	jobs := make([]Job, len(offsets))
	for i, t := range offsets {
		jobs[i] = Job{Slot: i, OffsetSec: t}
	}
	return jobs
}

// Buckets distributes jobs over n workers by relative position in the
// stream (bucket = floor(t/total*n), clamped to [0, n-1]) and sorts each
// bucket by ascending offset so that workers seek forward only.
func Buckets(jobs []Job, total float64, n int) [][]Job {
	n = max(n, 1)
	buckets := make([][]Job, n)
	for _, j := range jobs {
		b := 0
		if total > 0 {
			b = int(math.Floor(j.OffsetSec / total * float64(n)))
		}
		b = min(max(b, 0), n-1)
		buckets[b] = append(buckets[b], j)
	}
	for _, b := range buckets {
		sort.SliceStable(b, func(i, k int) bool { return b[i].OffsetSec < b[k].OffsetSec })
	}
	return buckets
}
