// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package logo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitPCAFindsDominantAxis(t *testing.T) {
	var data [][]float64
	for i := 0; i < 10; i++ {
		x := float64(i)
		// spread along (1,2,0), small wobble along (0,0,1)
		data = append(data, []float64{x, 2 * x, 0.01 * float64(i%2)})
	}

	p := FitPCA(data)
	require.Len(t, p.Components[0], 3)
	s := 1 / math.Sqrt(5)
	assert.InDelta(t, s, p.Components[0][0], 1e-6)
	assert.InDelta(t, 2*s, p.Components[0][1], 1e-6)
	assert.InDelta(t, 0, p.Components[0][2], 1e-3)
	assert.InDelta(t, 1, math.Abs(p.Components[1][2]), 1e-3)

	proj := p.ProjectAll(data)
	assert.InDelta(t, math.Sqrt(5), proj[1][0]-proj[0][0], 1e-4)
	assert.InDelta(t, 0, proj[0][0]+proj[9][0], 1e-6, "projection is centered")
}

func TestFitPCAIsDeterministic(t *testing.T) {
	data := [][]float64{{1, 0, 3}, {2, 1, 0}, {0, 4, 1}, {5, 2, 2}, {3, 3, 3}}
	assert.Equal(t, FitPCA(data), FitPCA(data))
}

func TestFitPCAConstantData(t *testing.T) {
	data := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	p := FitPCA(data)
	for _, pt := range p.ProjectAll(data) {
		assert.Equal(t, Point{0, 0}, pt)
	}
	assert.Empty(t, FitPCA(nil).Mean)
}
