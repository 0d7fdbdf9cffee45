package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/report"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/redis"
)

// sinkSet is the set of report sinks opened for one command, with the
// clients behind them.
type sinkSet struct {
	sinks   []report.Sink
	closers []func() error
}

func (s *sinkSet) add(sink report.Sink, closer func() error) {
	s.sinks = append(s.sinks, sink)
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
}

func (s *sinkSet) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			slog.Warn("closing report sink", "error", err)
		}
	}
}

// openSinks connects the named sinks. A network sink that cannot be reached
// is skipped with a warning unless required is set, so a run is never lost
// to a missing broker.
func openSinks(ctx context.Context, cfg *config.Config, names []string, format benchmark.Format, required bool) (*sinkSet, error) {
	set := &sinkSet{}
	var errs []error
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case "file":
			if cfg.Report.OutputPath == "" {
				errs = append(errs, apperrors.New(apperrors.ErrInvalidInput, apperrors.CodeUsage,
					"file sink needs report.outputPath"))
				continue
			}
			set.add(report.NewFileSink(cfg.Report.OutputPath, format), nil)
		case "redis":
			client, err := pkgredis.NewClient(cfg.Redis)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: redis: %v", apperrors.ErrSinkUnavailable, err))
				continue
			}
			set.add(report.NewRedisSink(client, cfg.Redis), client.Close)
			slog.Info("redis report sink enabled", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.KeyPrefix)
		case "kafka":
			producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.ReportTopic)
			set.add(report.NewKafkaSink(producer), producer.Close)
			slog.Info("kafka report sink enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.ReportTopic)
		case "postgres":
			client, err := postgres.New(cfg.Postgres)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: postgres: %v", apperrors.ErrSinkUnavailable, err))
				continue
			}
			if err := client.Migrate(ctx, report.Schema...); err != nil {
				client.Close()
				errs = append(errs, fmt.Errorf("%w: postgres: %v", apperrors.ErrSinkUnavailable, err))
				continue
			}
			set.add(report.NewPostgresSink(client.DB), client.Close)
			slog.Info("postgres report sink enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		default:
			errs = append(errs, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.CodeUsage, "unknown report sink %q", name))
		}
	}

	err := errors.Join(errs...)
	if err == nil {
		return set, nil
	}
	if required || apperrors.ExitCode(err) == apperrors.CodeUsage {
		set.Close()
		return nil, err
	}
	slog.Warn("some report sinks are unavailable, continuing without them", "error", err)
	return set, nil
}
