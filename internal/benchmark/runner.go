// Package benchmark drives the search engine over a synthetic holdings
// dataset, reports latency statistics and derives tuning recommendations.
package benchmark

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/metrics"
)

type RunnerOption func(*Runner)

// WithRules replaces the recommendation rules.
func WithRules(rules []Rule) RunnerOption {
	return func(r *Runner) { r.rules = rules }
}

func WithProbe(p MemoryProbe) RunnerOption {
	return func(r *Runner) { r.probe = p }
}

// WithMetrics publishes each result to the benchmark gauges and shares m
// with the engines the runner creates.
func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithEngineConfig sets the cache and metrics settings of benchmark engines.
func WithEngineConfig(cfg config.EngineConfig) RunnerOption {
	return func(r *Runner) { r.engineCfg = cfg }
}

// WithDataset benchmarks records instead of the generated dataset.
func WithDataset(records []record.Record) RunnerOption {
	return func(r *Runner) { r.data = records }
}

// Runner owns a dataset generated once at construction and accumulates
// results across runs. A Runner is safe for concurrent use, though
// concurrent runs distort each other's timings.
type Runner struct {
	cfg       config.BenchmarkConfig
	engineCfg config.EngineConfig
	data      []record.Record
	fields    []string
	probe     MemoryProbe
	rules     []Rule
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu      sync.Mutex
	results []Result
}

func NewRunner(cfg config.BenchmarkConfig, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:       cfg,
		engineCfg: config.Default().Engine,
		fields:    SearchFields,
		probe:     RuntimeProbe{},
		rules:     DefaultRules(),
		logger:    slog.Default().With("component", "benchmark"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.data == nil {
		r.data = GenerateDataset(cfg.DatasetSize, cfg.Seed)
	}
	r.logger.Info("benchmark dataset ready", "records", len(r.data), "seed", cfg.Seed)
	return r
}

// Dataset returns the records benchmarks run against.
func (r *Runner) Dataset() []record.Record {
	return r.data
}

func (r *Runner) searchOptions() engine.Options {
	opts := engine.Options{
		MaxResults:      r.cfg.MaxResults,
		SortByRelevance: engine.Bool(true),
	}
	if r.cfg.FuzzyThreshold > 0 {
		opts.FuzzyThreshold = engine.Float(r.cfg.FuzzyThreshold)
	}
	return opts
}

// RunBenchmark indexes the first dataSize records on a fresh engine, runs
// the warm-up searches, then times iterations searches cycling through
// queries.
func (r *Runner) RunBenchmark(name string, queries []string, dataSize, iterations int, complexity Complexity) (Result, error) {
	switch {
	case name == "":
		return Result{}, apperrors.New(apperrors.ErrInvalidInput, apperrors.CodeUsage, "benchmark name is empty")
	case len(queries) == 0:
		return Result{}, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.CodeUsage, "benchmark %q has no queries", name)
	case dataSize <= 0 || dataSize > len(r.data):
		return Result{}, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.CodeUsage,
			"benchmark %q data size %d outside 1..%d", name, dataSize, len(r.data))
	case iterations <= 0:
		return Result{}, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.CodeUsage,
			"benchmark %q needs at least one iteration, got %d", name, iterations)
	}
	if _, err := ParseComplexity(string(complexity)); err != nil {
		return Result{}, err
	}

	r.logger.Info("running benchmark", "name", name, "data_size", dataSize, "iterations", iterations)
	subset := r.data[:dataSize]
	eng := engine.New(r.engineCfg, r.metrics)

	indexStart := time.Now()
	eng.BuildIndex(subset, r.fields)
	indexTime := time.Since(indexStart)

	opts := r.searchOptions()
	for _, q := range queries[:min(r.cfg.WarmupQueries, len(queries))] {
		if _, err := eng.Search(subset, q, r.fields, opts); err != nil {
			return Result{}, err
		}
	}

	before, probed := r.probe.HeapBytes()
	times := make([]float64, iterations)
	progressEvery := max(iterations/4, 1)
	for i := 0; i < iterations; i++ {
		q := queries[i%len(queries)]
		start := time.Now()
		if _, err := eng.Search(subset, q, r.fields, opts); err != nil {
			return Result{}, err
		}
		times[i] = ms(time.Since(start))
		if i > 0 && i%progressEvery == 0 {
			r.logger.Debug("benchmark progress", "name", name, "percent", i*100/iterations)
		}
	}
	after, probedAfter := r.probe.HeapBytes()

	stats := Summarize(times)
	res := Result{
		TestName:     name,
		DataSize:     dataSize,
		Complexity:   complexity,
		MeanMs:       stats.Mean,
		MinMs:        stats.Min,
		MaxMs:        stats.Max,
		StdDevMs:     stats.StdDev,
		P50Ms:        stats.P50,
		P95Ms:        stats.P95,
		Throughput:   Throughput(stats.Mean),
		CacheHitRate: eng.CacheStats().HitRate,
		IndexTimeMs:  ms(indexTime),
		Iterations:   iterations,
		Timestamp:    time.Now().UTC(),
	}
	if probed && probedAfter {
		res.MemoryDelta = after - before
	} else {
		res.MemoryDelta = estimateBytes(dataSize, len(r.fields))
		res.MemoryEstimated = true
	}

	r.metrics.ObserveBenchmark(name, res.Throughput, res.MeanMs)
	r.logger.Info("benchmark complete",
		"name", name,
		"mean_ms", res.MeanMs,
		"p95_ms", res.P95Ms,
		"throughput", res.Throughput,
		"cache_hit_rate", res.CacheHitRate,
	)

	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	return res, nil
}

// RunPlan runs every case of plan in order and summarises the results.
func (r *Runner) RunPlan(plan Plan) (Suite, error) {
	start := time.Now()
	results := make([]Result, 0, len(plan.Cases))
	for _, c := range plan.Cases {
		res, err := r.RunBenchmark(c.Name, c.Queries, c.DataSize, c.Iterations, c.Complexity)
		if err != nil {
			return Suite{}, err
		}
		results = append(results, res)
	}
	suite := Suite{
		ID:          uuid.NewString(),
		Name:        plan.Name,
		Description: plan.Description,
		Results:     results,
		TotalTimeMs: ms(time.Since(start)),
		Summary:     summarize(results, r.rules),
	}
	r.logger.Info("benchmark suite complete",
		"suite", suite.Name,
		"id", suite.ID,
		"cases", len(results),
		"total_ms", suite.TotalTimeMs,
	)
	return suite, nil
}

// RunComprehensive runs DefaultPlan sized to the runner's dataset.
func (r *Runner) RunComprehensive() (Suite, error) {
	return r.RunPlan(DefaultPlan(len(r.data)))
}

// Results returns a copy of every result recorded so far.
func (r *Runner) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

func (r *Runner) ClearResults() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = nil
}
