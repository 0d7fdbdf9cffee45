// Package engine answers free-text searches over an in-memory record slice
// using the token index, the relevance scorer and the query cache.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/fuzzy"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/metrics"
)

// minPrefixWord is the shortest query word that triggers a prefix scan.
const minPrefixWord = 3

// PerformanceMetrics is a point-in-time view of an engine.
type PerformanceMetrics struct {
	// TotalSearches counts searches that reached the cache, the same set the
	// collector samples. Blank queries, searches before a build and stale
	// searches are not counted.
	TotalSearches     int64         `json:"total_searches" yaml:"total_searches"`
	AverageSearchTime time.Duration `json:"average_search_time" yaml:"average_search_time"`
	IndexTime         time.Duration `json:"index_time" yaml:"index_time"`
	Index             index.Stats   `json:"index" yaml:"index"`
	Cache             cache.Stats   `json:"cache" yaml:"cache"`
}

// Engine owns one index, one result cache and one metrics ring. BuildIndex
// and Search may be called from different goroutines; a rebuild waits for
// in-flight searches to finish.
type Engine struct {
	mu        sync.RWMutex
	index     *index.Index
	cache     *cache.Cache[[]Result]
	collector *analytics.Collector
	metrics   *metrics.Metrics
	searches  atomic.Int64
	logger    *slog.Logger
}

// New creates an engine. m may be nil.
func New(cfg config.EngineConfig, m *metrics.Metrics) *Engine {
	return &Engine{
		index:     index.New(),
		cache:     cache.New[[]Result](cfg.CacheTTL, cfg.CacheMaxEntries, m),
		collector: analytics.NewCollector(cfg.MetricsCapacity, cfg.SlowQueryThreshold),
		metrics:   m,
		logger:    slog.Default().With("component", "search-engine"),
	}
}

// BuildIndex replaces the index with one over records and fields and
// returns its epoch. Cached results refer to the previous records and are
// dropped.
func (e *Engine) BuildIndex(records []record.Record, fields []string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	epoch := e.index.Build(records, fields)
	e.cache.Purge()

	stats := e.index.Stats()
	e.metrics.ObserveIndexBuild(stats.BuildTime, stats.Records, stats.Tokens)
	e.logger.Info("search index built",
		"epoch", epoch,
		"records", stats.Records,
		"fields", fields,
		"tokens", stats.Tokens,
		"duration", stats.BuildTime,
	)
	return epoch
}

// Ready returns ErrIndexNotBuilt until the first BuildIndex.
func (e *Engine) Ready() error {
	if !e.index.Built() {
		return apperrors.ErrIndexNotBuilt
	}
	return nil
}

// Search ranks the records matching query in fields. A blank query, or a
// search before any index was built, yields an empty list. The only errors
// are ErrStaleIndex for a record slice or epoch that does not match the
// last build.
func (e *Engine) Search(records []record.Record, query string, fields []string, opts Options) ([]Result, error) {
	start := time.Now()
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.index.Built() {
		e.logger.Warn("search before index build", "query", query)
		e.metrics.ObserveSearch("not_indexed", false, time.Since(start), 0)
		return []Result{}, nil
	}
	if err := e.checkFresh(records, opts); err != nil {
		e.metrics.ObserveSearch("stale", false, time.Since(start), 0)
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		e.metrics.ObserveSearch("empty", false, time.Since(start), 0)
		return []Result{}, nil
	}

	e.searches.Add(1)
	opts = opts.canonical()
	key := cache.Key(query, fields, opts)
	results, hit, err := e.cache.GetOrCompute(key, func() ([]Result, error) {
		return e.execute(records, query, fields, opts), nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	elapsed := time.Since(start)
	e.collector.RecordSearch(analytics.SearchMetrics{
		Query:        query,
		SearchTime:   elapsed,
		TotalResults: len(results),
		IndexTime:    e.index.BuildTime(),
		CacheHit:     hit,
		Timestamp:    time.Now(),
	})
	resultType := "miss"
	switch {
	case hit:
		resultType = "hit"
	case len(results) == 0:
		resultType = "zero_result"
	}
	e.metrics.ObserveSearch(resultType, hit, elapsed, len(results))
	e.logger.Debug("search executed",
		"query", query,
		"fields", fields,
		"results", len(results),
		"cache_hit", hit,
		"duration", elapsed,
	)
	return cloneResults(results), nil
}

func (e *Engine) checkFresh(records []record.Record, opts Options) error {
	if opts.Epoch != 0 && opts.Epoch != e.index.Epoch() {
		return fmt.Errorf("search with epoch %d, index is at %d: %w", opts.Epoch, e.index.Epoch(), apperrors.ErrStaleIndex)
	}
	if len(records) != e.index.Records() {
		return fmt.Errorf("search over %d records, index covers %d: %w", len(records), e.index.Records(), apperrors.ErrStaleIndex)
	}
	return nil
}

func (e *Engine) execute(records []record.Record, query string, fields []string, opts Options) []Result {
	lookupWords := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	scoreWords := lookupWords
	if opts.CaseSensitive {
		scoreWords = strings.Fields(strings.TrimSpace(query))
	}

	candidates := e.candidates(lookupWords, fields, opts.FuzzyThreshold)

	scorer := ranker.NewScorer(scoreWords, ranker.Params{
		CaseSensitive: opts.CaseSensitive,
		Fuzzy:         opts.FuzzyThreshold != nil,
		Threshold:     derefFloat(opts.FuzzyThreshold),
		Highlight:     opts.HighlightMatches,
	})
	hits := make([]ranker.Hit, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		pos := int(it.Next())
		if pos >= len(records) {
			continue
		}
		hit := scorer.Score(pos, records[pos], fields)
		if hit.Score > 0 {
			hits = append(hits, hit)
		}
	}
	hits = ranker.Rank(hits, opts.byRelevance(), opts.MaxResults)

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{
			Position:      h.Position,
			Record:        records[h.Position],
			Score:         h.Score,
			MatchedFields: h.MatchedFields,
			Highlights:    h.Highlights,
		}
	}
	return results
}

// candidates unions the exact and prefix postings of every word in every
// field. With a fuzzy threshold, full values within the edit budget of a
// word contribute their postings too.
func (e *Engine) candidates(words, fields []string, threshold *float64) *roaring.Bitmap {
	out := roaring.New()
	for _, word := range words {
		for _, field := range fields {
			if bm := e.index.Exact(field, word); bm != nil {
				out.Or(bm)
			}
			if utf8.RuneCountInString(word) >= minPrefixWord {
				out.Or(e.index.Prefix(field, word))
			}
			if threshold == nil {
				continue
			}
			for _, value := range e.index.FullValues(field) {
				if fuzzy.Match(value, word, *threshold) {
					if bm := e.index.Exact(field, value); bm != nil {
						out.Or(bm)
					}
				}
			}
		}
	}
	return out
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// ClearCache empties the result cache and resets its hit and miss counts.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// PruneCache drops cached results older than twice the TTL and returns how
// many were removed.
func (e *Engine) PruneCache() int {
	n := e.cache.Prune(2 * e.cache.TTL())
	if n > 0 {
		e.logger.Debug("pruned query cache", "removed", n)
	}
	return n
}

// Collector is the ring of recent search samples this engine records into.
func (e *Engine) Collector() *analytics.Collector {
	return e.collector
}

// Epoch of the current index, 0 before the first build.
func (e *Engine) Epoch() uint64 {
	return e.index.Epoch()
}

func (e *Engine) IndexStats() index.Stats {
	return e.index.Stats()
}

func (e *Engine) PerformanceMetrics() PerformanceMetrics {
	stats := e.index.Stats()
	return PerformanceMetrics{
		TotalSearches:     e.searches.Load(),
		AverageSearchTime: e.collector.AverageSearchTime(),
		IndexTime:         stats.BuildTime,
		Index:             stats,
		Cache:             e.cache.Stats(),
	}
}

// FieldSuggestions returns up to limit distinct non-empty display values of
// field, taken in record order and then sorted. A non-positive limit uses 10.
func (e *Engine) FieldSuggestions(records []record.Record, field string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	seen := make(map[string]struct{})
	var values []string
	for _, rec := range records {
		v := rec[field]
		if v == nil {
			continue
		}
		s := record.Stringify(v)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		values = append(values, s)
		if len(values) == limit {
			break
		}
	}
	sort.Strings(values)
	return values
}
