// Package ranker scores records against query words and orders the hits.
package ranker

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/fuzzy"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
)

const (
	ScoreExact    = 100
	ScorePrefix   = 80
	ScoreContains = 50
	ScoreFuzzy    = 20

	MarkOpen  = "<mark>"
	MarkClose = "</mark>"
)

type Params struct {
	CaseSensitive bool
	// Fuzzy enables the edit-distance fallback at Threshold.
	Fuzzy     bool
	Threshold float64
	Highlight bool
}

// Hit is one scored record position.
type Hit struct {
	Position      int               `json:"position"`
	Score         float64           `json:"score"`
	MatchedFields []string          `json:"matched_fields"`
	Highlights    map[string]string `json:"highlights,omitempty"`
}

// Scorer scores records against a fixed set of query words. Build one per
// query; it is safe for concurrent use.
type Scorer struct {
	words  []string
	params Params
	marker *regexp.Regexp
}

// NewScorer expects words already folded the same way field values will be
// (lowercase unless CaseSensitive).
func NewScorer(words []string, p Params) *Scorer {
	s := &Scorer{words: words, params: p}
	if p.Highlight && len(words) > 0 {
		s.marker = highlightPattern(words, p.CaseSensitive)
	}
	return s
}

// Score returns the hit for rec at pos. A zero Score means no field matched.
func (s *Scorer) Score(pos int, rec record.Record, fields []string) Hit {
	hit := Hit{Position: pos}
	for _, field := range fields {
		raw := rec[field]
		value := record.Fold(raw, s.params.CaseSensitive)
		if value == "" {
			continue
		}
		subtotal := 0.0
		for _, word := range s.words {
			subtotal += s.wordScore(value, word)
		}
		if subtotal == 0 {
			continue
		}
		subtotal *= 1 + 1/float64(utf8.RuneCountInString(value))
		hit.Score += subtotal
		hit.MatchedFields = append(hit.MatchedFields, field)
		if s.marker != nil {
			if hit.Highlights == nil {
				hit.Highlights = make(map[string]string)
			}
			hit.Highlights[field] = s.marker.ReplaceAllString(record.Stringify(raw), MarkOpen+"$0"+MarkClose)
		}
	}
	return hit
}

func (s *Scorer) wordScore(value, word string) float64 {
	switch {
	case value == word:
		return ScoreExact
	case strings.HasPrefix(value, word):
		return ScorePrefix
	case strings.Contains(value, word):
		return ScoreContains
	case s.params.Fuzzy && fuzzy.Match(value, word, s.params.Threshold):
		return ScoreFuzzy
	}
	return 0
}

// highlightPattern matches any word; longer words are tried first so an
// overlapping shorter word does not split a longer match.
func highlightPattern(words []string, caseSensitive bool) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	sort.SliceStable(quoted, func(i, j int) bool {
		return len(quoted[i]) > len(quoted[j])
	})
	expr := strings.Join(quoted, "|")
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	return regexp.MustCompile(expr)
}

// Rank orders hits and truncates to limit (0 keeps all). By relevance means
// score descending, then more matched fields, then lower position; otherwise
// hits keep record order.
func Rank(hits []Hit, byRelevance bool, limit int) []Hit {
	sort.Slice(hits, func(i, j int) bool {
		if byRelevance {
			if hits[i].Score != hits[j].Score {
				return hits[i].Score > hits[j].Score
			}
			if len(hits[i].MatchedFields) != len(hits[j].MatchedFields) {
				return len(hits[i].MatchedFields) > len(hits[j].MatchedFields)
			}
		}
		return hits[i].Position < hits[j].Position
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
