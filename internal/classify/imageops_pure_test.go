// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build !gocv

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReflect101(t *testing.T) {
	assert.Equal(t, 1, reflect101(-1, 5))
	assert.Equal(t, 3, reflect101(5, 5))
	assert.Equal(t, 0, reflect101(0, 5))
	assert.Equal(t, 0, reflect101(-1, 1))
}
