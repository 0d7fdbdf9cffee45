package analytics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorFIFO(t *testing.T) {
	c := NewCollector(100, 0)
	for i := 0; i < 150; i++ {
		c.RecordSearch(SearchMetrics{Query: fmt.Sprintf("q%d", i), SearchTime: time.Duration(i) * time.Millisecond})
	}
	require.Equal(t, 100, c.Len())

	snap := c.Snapshot()
	assert.Equal(t, "q50", snap[0].Query, "oldest fifty were evicted")
	assert.Equal(t, "q149", snap[99].Query)
}

func TestCollectorDefaults(t *testing.T) {
	c := NewCollector(0, 0)
	assert.Equal(t, DefaultCapacity, c.Capacity())
	assert.Zero(t, c.AverageSearchTime())
	assert.Empty(t, c.SlowSearches(0))
}

func TestAverageAndSlowSearches(t *testing.T) {
	c := NewCollector(10, 0)
	c.RecordSearch(SearchMetrics{Query: "a", SearchTime: 20 * time.Millisecond})
	c.RecordSearch(SearchMetrics{Query: "b", SearchTime: 100 * time.Millisecond})
	c.RecordSearch(SearchMetrics{Query: "c", SearchTime: 180 * time.Millisecond})

	assert.Equal(t, 100*time.Millisecond, c.AverageSearchTime())

	slow := c.SlowSearches(0)
	require.Len(t, slow, 1, "default threshold is exclusive at 100ms")
	assert.Equal(t, "c", slow[0].Query)

	assert.Len(t, c.SlowSearches(10*time.Millisecond), 3)
}

func TestClear(t *testing.T) {
	c := NewCollector(2, 0)
	c.RecordSearch(SearchMetrics{Query: "a"})
	c.RecordSearch(SearchMetrics{Query: "b"})
	c.RecordSearch(SearchMetrics{Query: "c"})
	c.Clear()
	assert.Zero(t, c.Len())
	assert.Empty(t, c.Snapshot())

	c.RecordSearch(SearchMetrics{Query: "d"})
	assert.Equal(t, "d", c.Snapshot()[0].Query)
}

func TestStats(t *testing.T) {
	c := NewCollector(10, 50*time.Millisecond)
	c.RecordSearch(SearchMetrics{Query: "apple", SearchTime: 10 * time.Millisecond, TotalResults: 2})
	c.RecordSearch(SearchMetrics{Query: "apple", SearchTime: 20 * time.Millisecond, TotalResults: 2, CacheHit: true})
	c.RecordSearch(SearchMetrics{Query: "zzz", SearchTime: 60 * time.Millisecond})
	c.RecordSearch(SearchMetrics{Query: "bond", SearchTime: 30 * time.Millisecond, TotalResults: 1})

	s := c.Stats()
	assert.Equal(t, 4, s.Samples)
	assert.Equal(t, 1, s.CacheHits)
	assert.Equal(t, 1, s.ZeroResultCount)
	assert.Equal(t, 1, s.SlowSearches)
	assert.InDelta(t, 30.0, s.AvgLatencyMs, 1e-9)
	assert.Equal(t, 30.0, s.P50LatencyMs)
	assert.Equal(t, 60.0, s.P99LatencyMs)
	require.NotEmpty(t, s.TopQueries)
	assert.Equal(t, QueryCount{Query: "apple", Count: 2}, s.TopQueries[0])
	assert.Equal(t, []QueryCount{{Query: "zzz", Count: 1}}, s.ZeroResultQueries)
}

func TestHandler(t *testing.T) {
	c := NewCollector(10, 0)
	c.RecordSearch(SearchMetrics{Query: "apple", SearchTime: time.Millisecond, TotalResults: 1})

	rec := httptest.NewRecorder()
	NewHandler(c).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var s Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 1, s.Samples)

	rec = httptest.NewRecorder()
	NewHandler(c).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stats", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
