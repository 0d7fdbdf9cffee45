package benchmark

import (
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
)

// Profile is the latency distribution of one query repeated on one engine.
type Profile struct {
	Query    string    `json:"query" yaml:"query"`
	TimesMs  []float64 `json:"times_ms" yaml:"times_ms"`
	MeanMs   float64   `json:"mean_ms" yaml:"mean_ms"`
	MedianMs float64   `json:"median_ms" yaml:"median_ms"`
	P95Ms    float64   `json:"p95_ms" yaml:"p95_ms"`
	StdDevMs float64   `json:"stddev_ms" yaml:"stddev_ms"`
}

// ProfileQuery indexes records and times iterations identical searches.
// Every search after the first is served from the cache. TimesMs is sorted.
func (r *Runner) ProfileQuery(records []record.Record, fields []string, query string, iterations int) (Profile, error) {
	if iterations <= 0 {
		iterations = 100
	}
	eng := engine.New(r.engineCfg, r.metrics)
	eng.BuildIndex(records, fields)

	times := make([]float64, iterations)
	for i := range times {
		start := time.Now()
		if _, err := eng.Search(records, query, fields, engine.Options{}); err != nil {
			return Profile{}, err
		}
		times[i] = ms(time.Since(start))
	}
	sort.Float64s(times)
	stats := Summarize(times)
	return Profile{
		Query:    query,
		TimesMs:  times,
		MeanMs:   stats.Mean,
		MedianMs: times[len(times)/2],
		P95Ms:    times[min(len(times)*95/100, len(times)-1)],
		StdDevMs: stats.StdDev,
	}, nil
}

// IndexingReport describes one index build.
type IndexingReport struct {
	Records        int     `json:"records" yaml:"records"`
	Fields         int     `json:"fields" yaml:"fields"`
	IndexTimeMs    float64 `json:"index_time_ms" yaml:"index_time_ms"`
	Tokens         int     `json:"tokens" yaml:"tokens"`
	Postings       uint64  `json:"postings" yaml:"postings"`
	MemoryEstimate int64   `json:"memory_estimate" yaml:"memory_estimate"`
}

// MeasureIndexing times a single index build over records.
func (r *Runner) MeasureIndexing(records []record.Record, fields []string) IndexingReport {
	eng := engine.New(r.engineCfg, r.metrics)
	start := time.Now()
	eng.BuildIndex(records, fields)
	elapsed := time.Since(start)
	stats := eng.IndexStats()
	return IndexingReport{
		Records:        len(records),
		Fields:         len(fields),
		IndexTimeMs:    ms(elapsed),
		Tokens:         stats.Tokens,
		Postings:       stats.Postings,
		MemoryEstimate: estimateBytes(len(records), len(fields)),
	}
}
