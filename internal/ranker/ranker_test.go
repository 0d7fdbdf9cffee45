package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
)

func TestScoreTiers(t *testing.T) {
	s := NewScorer([]string{"apple"}, Params{})
	fields := []string{"name"}

	exact := s.Score(0, record.Record{"name": "Apple"}, fields)
	assert.InDelta(t, 100*(1+1.0/5), exact.Score, 1e-9)

	prefix := s.Score(1, record.Record{"name": "Apple Inc"}, fields)
	assert.InDelta(t, 80*(1+1.0/9), prefix.Score, 1e-9)

	contains := s.Score(2, record.Record{"name": "Big Apple"}, fields)
	assert.InDelta(t, 50*(1+1.0/9), contains.Score, 1e-9)

	none := s.Score(3, record.Record{"name": "Aple"}, fields)
	assert.Zero(t, none.Score)
	assert.Empty(t, none.MatchedFields)
}

func TestScoreFuzzyFallback(t *testing.T) {
	s := NewScorer([]string{"apple"}, Params{Fuzzy: true, Threshold: 0.8})
	hit := s.Score(0, record.Record{"name": "Aple"}, []string{"name"})
	assert.InDelta(t, 20*(1+1.0/4), hit.Score, 1e-9)
	assert.Equal(t, []string{"name"}, hit.MatchedFields)
}

func TestScoreShorterValueWins(t *testing.T) {
	s := NewScorer([]string{"apple"}, Params{})
	a := s.Score(0, record.Record{"name": "Apple Inc"}, []string{"name"})
	b := s.Score(1, record.Record{"name": "Apple Pie Co"}, []string{"name"})
	assert.Greater(t, a.Score, b.Score)
}

func TestScoreSumsFieldsInOrder(t *testing.T) {
	s := NewScorer([]string{"aapl"}, Params{})
	rec := record.Record{"symbol": "AAPL", "name": "AAPL Holdings", "type": nil}
	hit := s.Score(0, rec, []string{"type", "symbol", "name"})
	assert.Equal(t, []string{"symbol", "name"}, hit.MatchedFields)
	assert.InDelta(t, 100*(1+1.0/4)+80*(1+1.0/13), hit.Score, 1e-9)
}

func TestScoreCaseSensitive(t *testing.T) {
	s := NewScorer([]string{"Apple"}, Params{CaseSensitive: true})
	assert.Positive(t, s.Score(0, record.Record{"name": "Apple"}, []string{"name"}).Score)
	assert.Zero(t, s.Score(1, record.Record{"name": "apple"}, []string{"name"}).Score)
}

func TestHighlight(t *testing.T) {
	s := NewScorer([]string{"apple", "inc"}, Params{Highlight: true})
	hit := s.Score(0, record.Record{"name": "Apple Inc, apple"}, []string{"name"})
	require.Contains(t, hit.Highlights, "name")
	assert.Equal(t, "<mark>Apple</mark> <mark>Inc</mark>, <mark>apple</mark>", hit.Highlights["name"])

	plain := NewScorer([]string{"apple"}, Params{})
	assert.Nil(t, plain.Score(0, record.Record{"name": "Apple"}, []string{"name"}).Highlights)
}

func TestHighlightEscapesMetacharacters(t *testing.T) {
	s := NewScorer([]string{"s&p"}, Params{Highlight: true})
	hit := s.Score(0, record.Record{"name": "S&P 500 (index)"}, []string{"name"})
	assert.Equal(t, "<mark>S&P</mark> 500 (index)", hit.Highlights["name"])
}

func TestRank(t *testing.T) {
	hits := []Hit{
		{Position: 3, Score: 50, MatchedFields: []string{"a"}},
		{Position: 1, Score: 90, MatchedFields: []string{"a"}},
		{Position: 2, Score: 50, MatchedFields: []string{"a", "b"}},
		{Position: 0, Score: 50, MatchedFields: []string{"a"}},
	}
	ranked := Rank(append([]Hit(nil), hits...), true, 0)
	var order []int
	for _, h := range ranked {
		order = append(order, h.Position)
	}
	assert.Equal(t, []int{1, 2, 0, 3}, order)

	byPos := Rank(append([]Hit(nil), hits...), false, 2)
	require.Len(t, byPos, 2)
	assert.Equal(t, 0, byPos[0].Position)
	assert.Equal(t, 1, byPos[1].Position)
}
