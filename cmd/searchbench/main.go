// Command searchbench benchmarks, queries and serves the in-memory portfolio
// search engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/metrics"
)

// app carries what every subcommand shares once flags are parsed.
type app struct {
	configPath  string
	logLevel    string
	logFormat   string
	metricsPort int

	cfg         *config.Config
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	stopMetrics func(context.Context) error
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return apperrors.New(apperrors.ErrInvalidInput, apperrors.CodeUsage, err.Error())
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if a.metricsPort > 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = a.metricsPort
	}
	logger.Setup(cfg.Logging, cmd.ErrOrStderr())
	a.cfg = cfg

	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.New(a.registry)
	if cfg.Metrics.Enabled {
		a.stopMetrics = metrics.StartServer(cfg.Metrics.Port, a.registry, nil)
	}
	return nil
}

func (a *app) close() {
	if a.stopMetrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.stopMetrics(ctx); err != nil {
		slog.Warn("metrics server shutdown", "error", err)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "searchbench",
		Short: "Benchmark, query and serve the in-memory portfolio search engine",
		Long: `searchbench drives the in-memory record search engine.

It runs the benchmark suite over a synthetic holdings dataset and publishes
the report, answers one-off search and filter queries over a records file,
and serves the engine over HTTP.

Examples:
  searchbench suite --size 5000 --output reports/
  searchbench search --records holdings.json --query "apple" --highlight
  searchbench filter --records holdings.json --where '[{"field":"price","operator":"gt","value":100}]'
  searchbench serve --records holdings.jsonl --port 8080`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML or TOML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug|info|warn|error (overrides config)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "text|json (overrides config)")
	root.PersistentFlags().IntVar(&a.metricsPort, "metrics-port", 0, "serve Prometheus metrics on this port")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.New(apperrors.ErrInvalidInput, apperrors.CodeUsage, err.Error())
	})

	root.AddCommand(
		newSuiteCmd(a),
		newRunCmd(a),
		newProfileCmd(a),
		newCompareCmd(a),
		newSearchCmd(a),
		newFilterCmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
		newWatchCmd(a),
		newCheckCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}
