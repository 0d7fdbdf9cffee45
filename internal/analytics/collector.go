package analytics

import (
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultCapacity      = 100
	DefaultSlowThreshold = 100 * time.Millisecond
)

// Collector keeps the most recent search samples in a fixed-size FIFO ring.
// Once full, each new sample replaces the oldest one.
type Collector struct {
	mu      sync.Mutex
	samples []SearchMetrics
	next    int
	full    bool
	slow    time.Duration
	logger  *slog.Logger
}

// NewCollector returns a collector holding up to capacity samples. A
// non-positive capacity uses DefaultCapacity and a non-positive slow
// threshold uses DefaultSlowThreshold.
func NewCollector(capacity int, slowThreshold time.Duration) *Collector {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	return &Collector{
		samples: make([]SearchMetrics, capacity),
		slow:    slowThreshold,
		logger:  slog.Default().With("component", "search-metrics"),
	}
}

func (c *Collector) RecordSearch(m SearchMetrics) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	c.mu.Lock()
	c.samples[c.next] = m
	c.next = (c.next + 1) % len(c.samples)
	if c.next == 0 {
		c.full = true
	}
	c.mu.Unlock()

	if m.SearchTime > c.slow {
		c.logger.Debug("slow search", "query", m.Query, "duration", m.SearchTime)
	}
}

// Snapshot returns the retained samples oldest first.
func (c *Collector) Snapshot() []SearchMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ordered()
}

// ordered must be called with mu held.
func (c *Collector) ordered() []SearchMetrics {
	if !c.full {
		return append([]SearchMetrics(nil), c.samples[:c.next]...)
	}
	out := make([]SearchMetrics, 0, len(c.samples))
	out = append(out, c.samples[c.next:]...)
	return append(out, c.samples[:c.next]...)
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return len(c.samples)
	}
	return c.next
}

func (c *Collector) Capacity() int {
	return len(c.samples)
}

// AverageSearchTime is the mean SearchTime of the retained samples, or 0.
func (c *Collector) AverageSearchTime() time.Duration {
	samples := c.Snapshot()
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, s := range samples {
		total += s.SearchTime
	}
	return total / time.Duration(len(samples))
}

// SlowSearches returns the samples whose SearchTime exceeds threshold,
// oldest first. A non-positive threshold uses the collector's default.
func (c *Collector) SlowSearches(threshold time.Duration) []SearchMetrics {
	if threshold <= 0 {
		threshold = c.slow
	}
	var out []SearchMetrics
	for _, s := range c.Snapshot() {
		if s.SearchTime > threshold {
			out = append(out, s)
		}
	}
	return out
}

func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.samples)
	c.next = 0
	c.full = false
}
