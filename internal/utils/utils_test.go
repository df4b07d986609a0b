package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "empty when limit non-positive", input: "candidate answer", limit: 0, expect: ""},
		{name: "shorter than limit", input: "ok", limit: 10, expect: "ok"},
		{name: "truncates with ellipsis", input: "candidate answer", limit: 9, expect: "candidate..."},
		{name: "trims before measuring", input: "  yes  ", limit: 3, expect: "yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, TruncateForLog(tt.input, tt.limit))
		})
	}
}

func TestWordCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4, WordCount("  one two\tthree\nfour  "))
	assert.Zero(t, WordCount("   "))
}

func TestRound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     float64
		places int
		expect float64
	}{
		{in: 66.666, places: 1, expect: 66.7},
		{in: 30.0, places: 1, expect: 30.0},
		{in: -4.25, places: 1, expect: -4.3},
		{in: 49.5, places: 0, expect: 50},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, Round(tt.in, tt.places), "Round(%v, %d)", tt.in, tt.places)
	}
}
