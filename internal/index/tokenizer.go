package index

import (
	"strings"
	"unicode/utf8"
)

// minWordLen is the shortest whitespace word that gets its own token.
const minWordLen = 3

// Tokens expands a normalised field value into every key it is indexed
// under: the full value, each non-empty rune prefix (the full value is the
// longest), and each whitespace word of at least minWordLen runes. The
// result has no duplicates; an empty value yields nil.
func Tokens(value string) []string {
	if value == "" {
		return nil
	}
	n := utf8.RuneCountInString(value)
	tokens := make([]string, 0, n+4)
	seen := make(map[string]struct{}, n+4)
	add := func(t string) {
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}
	for i := range value {
		if i == 0 {
			continue
		}
		add(value[:i])
	}
	add(value)
	for _, word := range strings.Fields(value) {
		if utf8.RuneCountInString(word) >= minWordLen {
			add(word)
		}
	}
	return tokens
}
