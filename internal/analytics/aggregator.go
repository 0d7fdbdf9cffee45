package analytics

import (
	"sort"
	"time"
)

// Stats summarises the samples currently retained by a Collector.
type Stats struct {
	Samples           int          `json:"samples" yaml:"samples"`
	CacheHits         int          `json:"cache_hits" yaml:"cache_hits"`
	ZeroResultCount   int          `json:"zero_result_count" yaml:"zero_result_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms" yaml:"avg_latency_ms"`
	P50LatencyMs      float64      `json:"p50_latency_ms" yaml:"p50_latency_ms"`
	P95LatencyMs      float64      `json:"p95_latency_ms" yaml:"p95_latency_ms"`
	P99LatencyMs      float64      `json:"p99_latency_ms" yaml:"p99_latency_ms"`
	SlowSearches      int          `json:"slow_searches" yaml:"slow_searches"`
	TopQueries        []QueryCount `json:"top_queries" yaml:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries" yaml:"zero_result_queries"`
}

type QueryCount struct {
	Query string `json:"query" yaml:"query"`
	Count int    `json:"count" yaml:"count"`
}

func (c *Collector) Stats() Stats {
	samples := c.Snapshot()
	stats := Stats{Samples: len(samples)}
	if len(samples) == 0 {
		return stats
	}

	queryCounts := make(map[string]int)
	zeroResultQueries := make(map[string]int)
	latencies := make([]float64, 0, len(samples))
	var sum float64
	for _, s := range samples {
		ms := durationMs(s.SearchTime)
		latencies = append(latencies, ms)
		sum += ms
		queryCounts[s.Query]++
		if s.CacheHit {
			stats.CacheHits++
		}
		if s.TotalResults == 0 {
			stats.ZeroResultCount++
			zeroResultQueries[s.Query]++
		}
		if s.SearchTime > c.slow {
			stats.SlowSearches++
		}
	}
	sort.Float64s(latencies)
	stats.AvgLatencyMs = sum / float64(len(latencies))
	stats.P50LatencyMs = percentile(latencies, 50)
	stats.P95LatencyMs = percentile(latencies, 95)
	stats.P99LatencyMs = percentile(latencies, 99)
	stats.TopQueries = topN(queryCounts, 10)
	stats.ZeroResultQueries = topN(zeroResultQueries, 10)
	return stats
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// percentile uses nearest-rank on an ascending slice.
func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
