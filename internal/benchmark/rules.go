package benchmark

// Rule turns a set of results into zero or more recommendations.
type Rule struct {
	Name     string
	Evaluate func(results []Result) []string
}

const (
	slowMeanMs         = 100
	sluggishMeanMs     = 50
	minCacheHitRate    = 0.6
	highMemoryBytes    = 10 * 1024 * 1024
	largeDatasetSize   = 5000
	largeSlowdownRatio = 2
)

// NoActionNeeded is emitted when no rule fires.
var NoActionNeeded = []string{
	"Performance is excellent, no optimizations needed.",
	"Consider A/B testing alternative scoring strategies for edge-case queries.",
}

// DefaultRules are the latency, cache, memory and scaling heuristics.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "slow-mean",
			Evaluate: func(rs []Result) []string {
				if meanOf(rs, func(r Result) float64 { return r.MeanMs }) > slowMeanMs {
					return []string{
						"Offload searches on large datasets to background workers.",
						"Paginate results to reduce per-search processing.",
					}
				}
				return nil
			},
		},
		{
			Name: "sluggish-mean",
			Evaluate: func(rs []Result) []string {
				if meanOf(rs, func(r Result) float64 { return r.MeanMs }) > sluggishMeanMs {
					return []string{
						"Optimize the indexing strategy for faster candidate lookup.",
						"Build indexes at startup instead of on first search.",
					}
				}
				return nil
			},
		},
		{
			Name: "low-cache-hit-rate",
			Evaluate: func(rs []Result) []string {
				if meanOf(rs, func(r Result) float64 { return r.CacheHitRate }) < minCacheHitRate {
					return []string{
						"Increase the query cache size to improve hit rates.",
						"Use a smarter cache eviction policy.",
					}
				}
				return nil
			},
		},
		{
			Name: "high-memory",
			Evaluate: func(rs []Result) []string {
				if meanOf(rs, func(r Result) float64 { return float64(r.MemoryDelta) }) > highMemoryBytes {
					return []string{
						"Memory usage is high, consider compressing the index.",
						"Stream very large datasets instead of holding them in memory.",
					}
				}
				return nil
			},
		},
		{
			Name: "large-dataset-scaling",
			Evaluate: func(rs []Result) []string {
				var large []Result
				for _, r := range rs {
					if r.DataSize >= largeDatasetSize {
						large = append(large, r)
					}
				}
				if len(large) == 0 {
					return nil
				}
				overall := meanOf(rs, func(r Result) float64 { return r.MeanMs })
				if meanOf(large, func(r Result) float64 { return r.MeanMs }) > overall*largeSlowdownRatio {
					return []string{
						"Performance degrades significantly on large datasets, process them in chunks.",
						"Consider an external search index for production-size datasets.",
					}
				}
				return nil
			},
		},
	}
}

// Recommend runs every rule in order and concatenates their output. When
// nothing fires, it returns NoActionNeeded.
func Recommend(results []Result, rules []Rule) []string {
	var out []string
	if len(results) > 0 {
		for _, rule := range rules {
			out = append(out, rule.Evaluate(results)...)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), NoActionNeeded...)
	}
	return out
}

func meanOf(rs []Result, f func(Result) float64) float64 {
	if len(rs) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rs {
		sum += f(r)
	}
	return sum / float64(len(rs))
}
