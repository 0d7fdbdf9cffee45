package benchmark

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
)

type Complexity string

const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

// ParseComplexity accepts the three tags in any case.
func ParseComplexity(s string) (Complexity, error) {
	switch c := Complexity(strings.ToLower(strings.TrimSpace(s))); c {
	case Simple, Medium, Complex:
		return c, nil
	}
	return "", apperrors.Newf(apperrors.ErrInvalidInput, apperrors.CodeUsage, "unknown query complexity %q", s)
}

// Result is the outcome of one RunBenchmark call. Latencies are in
// milliseconds; MemoryDelta is in bytes and may be negative after a GC.
type Result struct {
	TestName     string     `json:"test_name" yaml:"test_name"`
	DataSize     int        `json:"data_size" yaml:"data_size"`
	Complexity   Complexity `json:"complexity" yaml:"complexity"`
	MeanMs       float64    `json:"mean_ms" yaml:"mean_ms"`
	MinMs        float64    `json:"min_ms" yaml:"min_ms"`
	MaxMs        float64    `json:"max_ms" yaml:"max_ms"`
	StdDevMs     float64    `json:"stddev_ms" yaml:"stddev_ms"`
	P50Ms        float64    `json:"p50_ms" yaml:"p50_ms"`
	P95Ms        float64    `json:"p95_ms" yaml:"p95_ms"`
	Throughput   float64    `json:"throughput" yaml:"throughput"`
	CacheHitRate float64    `json:"cache_hit_rate" yaml:"cache_hit_rate"`
	MemoryDelta  int64      `json:"memory_delta" yaml:"memory_delta"`
	// MemoryEstimated is set when the probe was unavailable and MemoryDelta
	// is a size estimate rather than a measurement.
	MemoryEstimated bool      `json:"memory_estimated,omitempty" yaml:"memory_estimated,omitempty"`
	IndexTimeMs     float64   `json:"index_time_ms" yaml:"index_time_ms"`
	Iterations      int       `json:"iterations" yaml:"iterations"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`
}

func (r Result) String() string {
	return fmt.Sprintf("%s: mean=%.3fms p95=%.3fms throughput=%.1f/s cache=%.0f%%",
		r.TestName, r.MeanMs, r.P95Ms, r.Throughput, r.CacheHitRate*100)
}

// Suite is an ordered set of results plus a derived summary.
type Suite struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Results     []Result     `json:"results" yaml:"results"`
	TotalTimeMs float64      `json:"total_time_ms" yaml:"total_time_ms"`
	Summary     SuiteSummary `json:"summary" yaml:"summary"`
}

type SuiteSummary struct {
	// Best has the highest throughput, Worst the highest mean latency.
	Best              Result   `json:"best" yaml:"best"`
	Worst             Result   `json:"worst" yaml:"worst"`
	AverageThroughput float64  `json:"average_throughput" yaml:"average_throughput"`
	Recommendations   []string `json:"recommendations" yaml:"recommendations"`
}

func summarize(results []Result, rules []Rule) SuiteSummary {
	s := SuiteSummary{Recommendations: Recommend(results, rules)}
	if len(results) == 0 {
		return s
	}
	s.Best, s.Worst = results[0], results[0]
	var total float64
	for _, r := range results {
		if r.Throughput > s.Best.Throughput {
			s.Best = r
		}
		if r.MeanMs > s.Worst.MeanMs {
			s.Worst = r
		}
		total += r.Throughput
	}
	s.AverageThroughput = total / float64(len(results))
	return s
}
