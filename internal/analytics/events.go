package analytics

import "time"

// SearchMetrics is one timing sample recorded per search call.
type SearchMetrics struct {
	Query        string        `json:"query"`
	SearchTime   time.Duration `json:"search_time"`
	TotalResults int           `json:"total_results"`
	IndexTime    time.Duration `json:"index_time"`
	CacheHit     bool          `json:"cache_hit"`
	Timestamp    time.Time     `json:"timestamp"`
}
