package report

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/resilience"
)

// KV is the subset of pkg/redis.Client the Redis sink writes through.
type KV interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	PushCapped(ctx context.Context, key, value string, limit int64) error
}

// HistoryReader is the subset of pkg/redis.Client LoadHistory reads through.
type HistoryReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Recent(ctx context.Context, key string, n int64) ([]string, error)
}

// RedisSink stores the JSON report under <prefix>:<suite id> with a TTL and
// records the id at the head of <prefix>:history, capped at History
// entries.
type RedisSink struct {
	kv      KV
	prefix  string
	ttl     time.Duration
	history int64
}

func NewRedisSink(kv KV, cfg config.RedisConfig) *RedisSink {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "bench"
	}
	return &RedisSink{kv: kv, prefix: prefix, ttl: cfg.ReportTTL, history: cfg.HistorySize}
}

func (s *RedisSink) Name() string { return "redis" }

func reportKey(prefix, id string) string { return prefix + ":" + id }

func historyKey(prefix string) string { return prefix + ":history" }

func (s *RedisSink) Publish(ctx context.Context, r benchmark.Report) error {
	data, err := encodeJSON(r)
	if err != nil {
		return resilience.Permanent(err)
	}
	if err := s.kv.Set(ctx, reportKey(s.prefix, r.Suite.ID), data, s.ttl); err != nil {
		return fmt.Errorf("storing report %s: %w", r.Suite.ID, err)
	}
	if err := s.kv.PushCapped(ctx, historyKey(s.prefix), r.Suite.ID, s.history); err != nil {
		return fmt.Errorf("recording report %s in history: %w", r.Suite.ID, err)
	}
	return nil
}

// LoadHistory returns up to n of the most recent reports, newest first.
// Ids whose report has expired, meaning Get failed with an error isMissing
// accepts, are skipped.
func LoadHistory(ctx context.Context, rd HistoryReader, prefix string, n int64, isMissing func(error) bool) ([]benchmark.Report, error) {
	ids, err := rd.Recent(ctx, historyKey(prefix), n)
	if err != nil {
		return nil, fmt.Errorf("reading report history: %w", err)
	}
	out := make([]benchmark.Report, 0, len(ids))
	for _, id := range ids {
		data, err := rd.Get(ctx, reportKey(prefix, id))
		if err != nil {
			if isMissing != nil && isMissing(err) {
				continue
			}
			return nil, fmt.Errorf("loading report %s: %w", id, err)
		}
		r, err := benchmark.ParseReport(data, benchmark.FormatJSON)
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", id, err)
		}
		out = append(out, r)
	}
	return out, nil
}
