package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/filter"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/server"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/health"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		recordsPath string
		fields      []string
		port        int
		size        int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search, filter and analytics over HTTP",
		Long: `serve indexes a records file (or the synthetic holdings dataset when
--records is omitted) and exposes it under /api/v1 until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			var recs []record.Record
			if recordsPath != "" {
				var err error
				if recs, err = record.LoadFile(recordsPath); err != nil {
					return err
				}
				if len(fields) == 0 {
					fields = textFields(recs)
				}
			} else {
				recs = benchmark.GenerateDataset(size, cfg.Benchmark.Seed)
				if len(fields) == 0 {
					fields = benchmark.SearchFields
				}
			}

			eng := engine.New(cfg.Engine, a.metrics)
			eng.BuildIndex(recs, fields)

			ctx := cmd.Context()
			go pruneLoop(ctx, eng, cfg.Engine.CacheTTL)

			srv := server.New(cfg.Server, server.Deps{
				Engine:   eng,
				Records:  recs,
				Fields:   fields,
				Filter:   filter.OptionsFrom(cfg.Filter, a.metrics),
				Metrics:  a.metrics,
				Gatherer: a.registry,
				Health:   health.NewChecker(),
			})
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&recordsPath, "records", "r", "", "JSON, JSONL or YAML records file")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to index (default: string fields of the first record)")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port")
	cmd.Flags().IntVar(&size, "size", 10000, "synthetic dataset size when --records is omitted")
	return cmd
}

// pruneLoop drops expired cache entries once per TTL until ctx is done.
func pruneLoop(ctx context.Context, eng *engine.Engine, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := eng.PruneCache(); n > 0 {
				slog.Debug("pruned query cache", "removed", n)
			}
		}
	}
}
