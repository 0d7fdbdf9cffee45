package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/resilience"
)

// Publisher fans a report out to every sink concurrently. Each sink is
// retried with backoff, bounded per attempt by the sink timeout, and
// guarded by its own breaker so a dead sink is skipped on later reports.
type Publisher struct {
	sinks    []Sink
	breakers []*resilience.Breaker
	retry    resilience.RetryConfig
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewPublisher(cfg config.ReportConfig, m *metrics.Metrics, sinks ...Sink) *Publisher {
	p := &Publisher{
		sinks: sinks,
		retry: resilience.RetryConfig{
			MaxAttempts:  cfg.RetryAttempts,
			InitialDelay: cfg.RetryDelay,
		},
		timeout: cfg.SinkTimeout,
		metrics: m,
		logger:  slog.Default().With("component", "report-publisher"),
	}
	for _, s := range sinks {
		p.breakers = append(p.breakers, resilience.NewBreaker(s.Name(), cfg.BreakerThreshold, cfg.BreakerReset))
	}
	return p
}

// Publish delivers r to every sink. A failing sink does not stop the
// others; the returned error joins one ErrSinkUnavailable per failed sink.
func (p *Publisher) Publish(ctx context.Context, r benchmark.Report) error {
	errs := make([]error, len(p.sinks))
	var wg sync.WaitGroup
	for i, sink := range p.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = p.publishOne(ctx, sink, p.breakers[i], r)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (p *Publisher) publishOne(ctx context.Context, sink Sink, b *resilience.Breaker, r benchmark.Report) error {
	start := time.Now()
	err := b.Do(func() error {
		return resilience.Retry(ctx, "publish "+sink.Name(), p.retry, func(ctx context.Context) error {
			return resilience.WithTimeout(ctx, p.timeout, sink.Name(), func(ctx context.Context) error {
				return sink.Publish(ctx, r)
			})
		})
	})
	switch {
	case err == nil:
		p.metrics.ReportPublished(sink.Name(), "ok")
		p.logger.Info("report published",
			"sink", sink.Name(),
			"suite", r.Suite.ID,
			"duration", time.Since(start),
		)
		return nil
	case errors.Is(err, resilience.ErrBreakerOpen):
		p.metrics.ReportPublished(sink.Name(), "skipped")
	default:
		p.metrics.ReportPublished(sink.Name(), "error")
	}
	p.logger.Error("report publish failed", "sink", sink.Name(), "suite", r.Suite.ID, "error", err)
	return fmt.Errorf("sink %s: %w: %w", sink.Name(), apperrors.ErrSinkUnavailable, err)
}
