package report

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/kafka"
)

// EventPublisher is satisfied by pkg/kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// KafkaSink emits the report as a JSON event keyed by suite id, so every
// report of a suite lands on the same partition.
type KafkaSink struct {
	producer EventPublisher
}

func NewKafkaSink(p EventPublisher) *KafkaSink {
	return &KafkaSink{producer: p}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Publish(ctx context.Context, r benchmark.Report) error {
	return s.producer.Publish(ctx, kafka.Event{Key: r.Suite.ID, Type: EventType, Value: r})
}

// DecodeEvent parses a message value written by KafkaSink.
func DecodeEvent(value []byte) (benchmark.Report, error) {
	return kafka.DecodeJSON[benchmark.Report](value)
}
