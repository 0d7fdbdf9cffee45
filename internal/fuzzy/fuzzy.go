// Package fuzzy implements the edit-distance fallback used when a query word
// neither equals, prefixes nor appears inside a field value.
package fuzzy

import (
	"math"
	"unicode/utf8"
)

// epsilon absorbs float error in word_length*(1-threshold) so that, for
// example, 5 runes at 0.8 yields a budget of 1 rather than 0.
const epsilon = 1e-9

// Distance is the Levenshtein distance between a and b counted in runes.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// MaxDistance is the largest edit distance accepted for a word of wordLen
// runes at the given similarity threshold. The threshold is clamped to
// [0, 1].
func MaxDistance(wordLen int, threshold float64) int {
	threshold = math.Max(0, math.Min(1, threshold))
	return int(math.Floor(float64(wordLen)*(1-threshold) + epsilon))
}

// Match reports whether value is within the distance budget of word. The
// comparison is against the whole value, not its substrings. An empty word
// always matches; an empty value never does.
func Match(value, word string, threshold float64) bool {
	if word == "" {
		return true
	}
	if value == "" {
		return false
	}
	limit := MaxDistance(utf8.RuneCountInString(word), threshold)
	if abs(utf8.RuneCountInString(value)-utf8.RuneCountInString(word)) > limit {
		return false
	}
	return Distance(value, word) <= limit
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
