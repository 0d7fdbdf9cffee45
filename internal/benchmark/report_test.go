package benchmark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
)

func sampleSuite() Suite {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	results := []Result{
		{TestName: "Simple Queries - 100 records", DataSize: 100, Complexity: Simple, MeanMs: 0.5, MinMs: 0.1, MaxMs: 2, P50Ms: 0.4, P95Ms: 1.5, Throughput: 2000, CacheHitRate: 0.9, MemoryDelta: 2048, Iterations: 50, Timestamp: ts},
		{TestName: "Complex Queries - 100 records", DataSize: 100, Complexity: Complex, MeanMs: 4, MinMs: 1, MaxMs: 9, P50Ms: 3, P95Ms: 8, Throughput: 250, CacheHitRate: 0.8, MemoryDelta: 25000, MemoryEstimated: true, Iterations: 20, Timestamp: ts},
	}
	return Suite{
		ID:          "b0d5c2f1-0000-4000-8000-000000000001",
		Name:        "sample",
		Description: "two cases",
		Results:     results,
		TotalTimeMs: 123.5,
		Summary:     summarize(results, DefaultRules()),
	}
}

func TestExportRoundTrip(t *testing.T) {
	suite := sampleSuite()
	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := Export(suite, format)
		require.NoError(t, err, format)

		report, err := ParseReport(data, format)
		require.NoError(t, err, format)
		assert.False(t, report.Timestamp.IsZero(), format)
		assert.NotEmpty(t, report.Environment.Platform, format)
		assert.Positive(t, report.Environment.CPUs, format)

		got := report.Suite
		assert.Equal(t, suite.ID, got.ID, format)
		assert.Equal(t, suite.Name, got.Name, format)
		assert.Equal(t, suite.TotalTimeMs, got.TotalTimeMs, format)
		require.Len(t, got.Results, 2, format)
		for i, want := range suite.Results {
			assert.Equal(t, want.TestName, got.Results[i].TestName, format)
			assert.Equal(t, want.Complexity, got.Results[i].Complexity, format)
			assert.Equal(t, want.MeanMs, got.Results[i].MeanMs, format)
			assert.Equal(t, want.Throughput, got.Results[i].Throughput, format)
			assert.Equal(t, want.MemoryDelta, got.Results[i].MemoryDelta, format)
			assert.Equal(t, want.MemoryEstimated, got.Results[i].MemoryEstimated, format)
			assert.True(t, want.Timestamp.Equal(got.Results[i].Timestamp), format)
		}
		assert.Equal(t, suite.Summary.Recommendations, got.Summary.Recommendations, format)
		assert.Equal(t, suite.Summary.Best.TestName, got.Summary.Best.TestName, format)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, "": FormatJSON, "YAML": FormatYAML, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = Encode(Report{}, "csv")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = ParseReport([]byte("{"), FormatJSON)
	assert.Error(t, err)
}

func TestParseComplexity(t *testing.T) {
	c, err := ParseComplexity(" Medium ")
	require.NoError(t, err)
	assert.Equal(t, Medium, c)
	_, err = ParseComplexity("extreme")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRecommendDefaultRules(t *testing.T) {
	healthy := []Result{{DataSize: 100, MeanMs: 1, CacheHitRate: 0.9}}
	assert.Equal(t, NoActionNeeded, Recommend(healthy, DefaultRules()))
	assert.Equal(t, NoActionNeeded, Recommend(nil, DefaultRules()))

	slow := []Result{{DataSize: 100, MeanMs: 150, CacheHitRate: 0.9}}
	recs := Recommend(slow, DefaultRules())
	assert.Len(t, recs, 4, "slow and sluggish both fire")
	assert.Contains(t, recs, "Paginate results to reduce per-search processing.")

	cold := []Result{{DataSize: 100, MeanMs: 1, CacheHitRate: 0.2}}
	assert.Equal(t, []string{
		"Increase the query cache size to improve hit rates.",
		"Use a smarter cache eviction policy.",
	}, Recommend(cold, DefaultRules()))

	heavy := []Result{{DataSize: 100, MeanMs: 1, CacheHitRate: 0.9, MemoryDelta: 20 << 20}}
	assert.Contains(t, Recommend(heavy, DefaultRules()), "Memory usage is high, consider compressing the index.")

	scaling := []Result{
		{DataSize: 100, MeanMs: 1, CacheHitRate: 0.9},
		{DataSize: 100, MeanMs: 1, CacheHitRate: 0.9},
		{DataSize: 100, MeanMs: 1, CacheHitRate: 0.9},
		{DataSize: 10000, MeanMs: 20, CacheHitRate: 0.9},
	}
	assert.Contains(t, Recommend(scaling, DefaultRules()),
		"Performance degrades significantly on large datasets, process them in chunks.")
}

func TestCustomRules(t *testing.T) {
	always := Rule{Name: "always", Evaluate: func([]Result) []string { return []string{"tune it"} }}
	r := NewRunner(smallConfig(20), WithRules([]Rule{always}))
	suite, err := r.RunPlan(Plan{Cases: []Case{{"one", []string{"AAPL"}, 20, 2, Simple}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"tune it"}, suite.Summary.Recommendations)
}

func TestCompare(t *testing.T) {
	base := Result{MeanMs: 10, Throughput: 100, MemoryDelta: 1000}

	c := Compare(Result{MeanMs: 8, Throughput: 125, MemoryDelta: 500}, base)
	assert.InDelta(t, -20, c.LatencyChange, 1e-9)
	assert.InDelta(t, 25, c.ThroughputChange, 1e-9)
	assert.InDelta(t, -50, c.MemoryChange, 1e-9)
	assert.Equal(t, VerdictImproved, c.Verdict)

	assert.Equal(t, VerdictDegraded, Compare(Result{MeanMs: 12}, base).Verdict)
	assert.Equal(t, VerdictStable, Compare(Result{MeanMs: 10.5}, base).Verdict)

	zero := Compare(Result{MeanMs: 5}, Result{})
	assert.Zero(t, zero.LatencyChange)
	assert.Equal(t, VerdictStable, zero.Verdict)
}

func TestResultString(t *testing.T) {
	r := Result{TestName: "x", MeanMs: 1.5, P95Ms: 2, Throughput: 666.7, CacheHitRate: 0.5}
	assert.Equal(t, "x: mean=1.500ms p95=2.000ms throughput=666.7/s cache=50%", r.String())
}
