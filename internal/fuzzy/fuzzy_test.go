package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"apple", "aple", 1},
		{"apple", "apple", 0},
		{"flaw", "lawn", 2},
		{"café", "cafe", 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Distance(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
		assert.Equal(t, tc.want, Distance(tc.b, tc.a), "symmetry %q vs %q", tc.b, tc.a)
	}
}

func TestMaxDistance(t *testing.T) {
	assert.Equal(t, 2, MaxDistance(8, 0.75))
	assert.Equal(t, 1, MaxDistance(5, 0.8))
	assert.Equal(t, 0, MaxDistance(5, 1))
	assert.Equal(t, 5, MaxDistance(5, 0))
	assert.Equal(t, 5, MaxDistance(5, -3), "threshold clamps to 0")
	assert.Equal(t, 0, MaxDistance(5, 7), "threshold clamps to 1")
}

func TestMatchBoundary(t *testing.T) {
	// "sitting" has 7 runes; at 0.5 the budget is floor(3.5) = 3.
	assert.Equal(t, 3, MaxDistance(7, 0.5))
	assert.True(t, Match("kitten", "sitting", 0.5), "distance == limit matches")

	// "abcdefgh" vs "abcdzzzz" is 4 edits; at 0.5 the budget for 8 runes is 4.
	assert.True(t, Match("abcdzzzz", "abcdefgh", 0.5))
	// one more edit is over the limit
	assert.False(t, Match("abczzzzz", "abcdefgh", 0.5), "distance == limit+1 does not match")
}

func TestMatchEdges(t *testing.T) {
	assert.True(t, Match("anything", "", 0.9))
	assert.True(t, Match("", "", 0.9))
	assert.False(t, Match("", "word", 0))
	assert.True(t, Match("aple", "apple", 0.8))
	assert.False(t, Match("apple inc", "apple", 0.8), "whole-value comparison")
}
