package engine

import (
	"maps"
	"math"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
)

// Options tunes a single Search call. The zero value is a case-insensitive,
// non-fuzzy, unlimited search sorted by relevance.
type Options struct {
	CaseSensitive bool `json:"case_sensitive"`
	// FuzzyThreshold enables the edit-distance fallback when set. It is a
	// similarity floor in [0, 1].
	FuzzyThreshold   *float64 `json:"fuzzy_threshold,omitempty"`
	HighlightMatches bool     `json:"highlight_matches"`
	// MaxResults caps the ranked list; 0 keeps everything.
	MaxResults int `json:"max_results"`
	// SortByRelevance defaults to true when nil. When false, results are in
	// record order.
	SortByRelevance *bool `json:"sort_by_relevance,omitempty"`
	// Epoch, when non-zero, must equal the epoch returned by the last
	// BuildIndex or the search fails with ErrStaleIndex.
	Epoch uint64 `json:"epoch,omitempty"`
}

func Float(v float64) *float64 { return &v }

func Bool(v bool) *bool { return &v }

// canonical resolves defaults so equivalent options share one cache key.
func (o Options) canonical() Options {
	if o.SortByRelevance == nil {
		o.SortByRelevance = Bool(true)
	}
	if o.FuzzyThreshold != nil {
		o.FuzzyThreshold = Float(math.Max(0, math.Min(1, *o.FuzzyThreshold)))
	}
	if o.MaxResults < 0 {
		o.MaxResults = 0
	}
	return o
}

func (o Options) byRelevance() bool {
	return o.SortByRelevance == nil || *o.SortByRelevance
}

// Result is one ranked match.
type Result struct {
	Position      int               `json:"position"`
	Record        record.Record     `json:"record"`
	Score         float64           `json:"score"`
	MatchedFields []string          `json:"matched_fields"`
	Highlights    map[string]string `json:"highlights,omitempty"`
}

// clone copies the parts of r a caller could edit in place. Record is the
// caller's own value and is shared.
func (r Result) clone() Result {
	r.MatchedFields = slices.Clone(r.MatchedFields)
	r.Highlights = maps.Clone(r.Highlights)
	return r
}

func cloneResults(rs []Result) []Result {
	out := make([]Result, len(rs))
	for i, r := range rs {
		out[i] = r.clone()
	}
	return out
}
