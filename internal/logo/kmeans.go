// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package logo

import (
	"math"
	"math/rand/v2"
)

// KMeansOptions bounds a k-means run. The zero value is not usable; see
// DefaultKMeansOptions.
type KMeansOptions struct {
	MaxIter  int
	Epsilon  float64
	Attempts int
	Seed     uint64
}

// DefaultKMeansOptions matches the training pipeline: 40 iterations,
// center shift 1e-4, best of 5 k-means++ initialisations, fixed seed.
func DefaultKMeansOptions() KMeansOptions {
	return KMeansOptions{MaxIter: 40, Epsilon: 1e-4, Attempts: 5, Seed: 0x5eed}
}

// KMeans clusters points into k groups and returns the labels of the most
// compact attempt. k is reduced to len(points) when larger.
func KMeans(points []Point, k int, opts KMeansOptions) []int {
	n := len(points)
	if n == 0 {
		return nil
	}
	k = max(1, min(k, n))
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	var best []int
	bestCompactness := math.Inf(1)
	for a := 0; a < max(1, opts.Attempts); a++ {
		labels, compactness := kmeansOnce(points, k, opts, rng)
		if compactness < bestCompactness {
			bestCompactness = compactness
			best = labels
		}
	}
	return best
}

func kmeansOnce(points []Point, k int, opts KMeansOptions, rng *rand.Rand) ([]int, float64) {
	centers := seedPlusPlus(points, k, rng)
	labels := make([]int, len(points))
	assign(points, centers, labels)

	eps2 := opts.Epsilon * opts.Epsilon
	for iter := 0; iter < opts.MaxIter; iter++ {
		next := recompute(points, labels, k)
		var shift float64
		for c := range next {
			dx, dy := next[c][0]-centers[c][0], next[c][1]-centers[c][1]
			shift = max(shift, dx*dx+dy*dy)
		}
		centers = next
		assign(points, centers, labels)
		if shift <= eps2 {
			break
		}
	}

	var compactness float64
	for i, p := range points {
		c := centers[labels[i]]
		dx, dy := p[0]-c[0], p[1]-c[1]
		compactness += dx*dx + dy*dy
	}
	return labels, compactness
}

func seedPlusPlus(points []Point, k int, rng *rand.Rand) []Point {
	centers := make([]Point, 0, k)
	centers = append(centers, points[rng.IntN(len(points))])

	d2 := make([]float64, len(points))
	for len(centers) < k {
		var sum float64
		for i, p := range points {
			best := math.Inf(1)
			for _, c := range centers {
				dx, dy := p[0]-c[0], p[1]-c[1]
				best = min(best, dx*dx+dy*dy)
			}
			d2[i] = best
			sum += best
		}
		if sum == 0 {
			centers = append(centers, points[rng.IntN(len(points))])
			continue
		}
		r := rng.Float64() * sum
		pick := -1
		for i, w := range d2 {
			if w == 0 {
				continue
			}
			pick = i
			r -= w
			if r <= 0 {
				pick = i
				break
			}
		}
		centers = append(centers, points[pick])
	}
	return centers
}

func assign(points []Point, centers []Point, labels []int) {
	for i, p := range points {
		best, bestD := 0, math.Inf(1)
		for c, ctr := range centers {
			dx, dy := p[0]-ctr[0], p[1]-ctr[1]
			if d := dx*dx + dy*dy; d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
	}
}

// recompute averages each cluster. An empty cluster takes the point of the
// largest cluster that lies farthest from that cluster's center.
func recompute(points []Point, labels []int, k int) []Point {
	centers := make([]Point, k)
	counts := make([]int, k)
	for i, p := range points {
		c := labels[i]
		centers[c][0] += p[0]
		centers[c][1] += p[1]
		counts[c]++
	}
	for c := range centers {
		if counts[c] > 0 {
			centers[c][0] /= float64(counts[c])
			centers[c][1] /= float64(counts[c])
		}
	}
	for c := range centers {
		if counts[c] > 0 {
			continue
		}
		big := 0
		for j := range counts {
			if counts[j] > counts[big] {
				big = j
			}
		}
		far, farD := -1, -1.0
		for i, p := range points {
			if labels[i] != big {
				continue
			}
			if d := p.Dist(centers[big]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 || counts[big] < 2 {
			continue
		}
		labels[far] = c
		counts[big]--
		counts[c] = 1
		centers[c] = points[far]
	}
	return centers
}
