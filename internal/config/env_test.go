// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envValue string
		envSet   bool
		want     string
	}{
		{"set", "ADSCAN_TEST_STRING", "from-env", true, "from-env"},
		{"unset", "ADSCAN_TEST_STRING_UNSET", "", false, "default"},
		{"empty", "ADSCAN_TEST_STRING_EMPTY", "", true, "default"},
		{"sensitive", "ADSCAN_TEST_PASSWORD", "secret", true, "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}
			assert.Equal(t, tt.want, ParseString(tt.key, "default"))
		})
	}
}

func TestParseNumbers(t *testing.T) {
	t.Setenv("ADSCAN_TEST_INT", " 12 ")
	t.Setenv("ADSCAN_TEST_INT_BAD", "twelve")
	t.Setenv("ADSCAN_TEST_FLOAT", "0.25")
	t.Setenv("ADSCAN_TEST_FLOAT_BAD", "quarter")

	assert.Equal(t, 12, ParseInt("ADSCAN_TEST_INT", 1))
	assert.Equal(t, 1, ParseInt("ADSCAN_TEST_INT_BAD", 1))
	assert.Equal(t, 0.25, ParseFloat("ADSCAN_TEST_FLOAT", 1))
	assert.Equal(t, 1.0, ParseFloat("ADSCAN_TEST_FLOAT_BAD", 1))
	assert.Equal(t, 3.5, ParseFloat("ADSCAN_TEST_FLOAT_UNSET", 3.5))
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true}, {"YES", true}, {"1", true},
		{"false", false}, {"no", false}, {"0", false},
		{"maybe", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("ADSCAN_TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, ParseBool("ADSCAN_TEST_BOOL", true))
		})
	}
}

func TestParseDuration(t *testing.T) {
	t.Setenv("ADSCAN_TEST_DUR", "750ms")
	t.Setenv("ADSCAN_TEST_DUR_BAD", "soon")
	assert.Equal(t, 750*time.Millisecond, ParseDuration("ADSCAN_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, ParseDuration("ADSCAN_TEST_DUR_BAD", time.Second))
}
