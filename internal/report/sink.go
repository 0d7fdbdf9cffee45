// Package report delivers exported benchmark reports to the configured
// sinks: a local file, Redis, Kafka and PostgreSQL.
package report

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/benchmark"
)

// Sink stores or forwards one report. Publish must honour ctx.
type Sink interface {
	Name() string
	Publish(ctx context.Context, r benchmark.Report) error
}

// EventType tags report messages on Kafka.
const EventType = "benchmark.report"

func encodeJSON(r benchmark.Report) ([]byte, error) {
	return benchmark.Encode(r, benchmark.FormatJSON)
}
