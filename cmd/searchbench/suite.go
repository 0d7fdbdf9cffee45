package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
)

func newSuiteCmd(a *app) *cobra.Command {
	var (
		size     int
		seed     int64
		records  string
		format   string
		output   string
		sinks    []string
		required bool
	)
	cmd := &cobra.Command{
		Use:   "suite",
		Short: "Run the comprehensive benchmark suite and publish the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("size") {
				cfg.Benchmark.DatasetSize = size
			}
			if cmd.Flags().Changed("seed") {
				cfg.Benchmark.Seed = seed
			}
			if cmd.Flags().Changed("format") {
				cfg.Report.Format = format
			}
			if cmd.Flags().Changed("output") {
				cfg.Report.OutputPath = output
			}
			if cmd.Flags().Changed("sink") {
				cfg.Report.Sinks = sinks
			}
			f, err := benchmark.ParseFormat(cfg.Report.Format)
			if err != nil {
				return err
			}

			runner, err := newRunner(a, records)
			if err != nil {
				return err
			}
			suite, err := runner.RunComprehensive()
			if err != nil {
				return err
			}
			printSuite(cmd.OutOrStdout(), suite)

			names := cfg.Report.Sinks
			if cfg.Report.OutputPath != "" && !contains(names, "file") {
				names = append([]string{"file"}, names...)
			}
			return publish(cmd.Context(), a, names, f, required, benchmark.NewReport(suite))
		},
	}
	cmd.Flags().IntVar(&size, "size", 10000, "synthetic dataset size")
	cmd.Flags().Int64Var(&seed, "seed", 42, "synthetic dataset seed")
	cmd.Flags().StringVar(&records, "records", "", "benchmark a JSON, JSONL or YAML records file instead of synthetic data")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "report format: json|yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "report file, or directory for benchmark-<id>.<ext>")
	cmd.Flags().StringSliceVar(&sinks, "sink", nil, "report sinks: file,redis,kafka,postgres")
	cmd.Flags().BoolVar(&required, "require-sinks", false, "fail when a configured sink cannot be reached")
	return cmd
}

func newRunner(a *app, recordsPath string) (*benchmark.Runner, error) {
	opts := []benchmark.RunnerOption{
		benchmark.WithMetrics(a.metrics),
		benchmark.WithEngineConfig(a.cfg.Engine),
	}
	if recordsPath != "" {
		recs, err := record.LoadFile(recordsPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, benchmark.WithDataset(recs))
	}
	return benchmark.NewRunner(a.cfg.Benchmark, opts...), nil
}

func publish(ctx context.Context, a *app, names []string, f benchmark.Format, required bool, r benchmark.Report) error {
	if len(names) == 0 {
		return nil
	}
	set, err := openSinks(ctx, a.cfg, names, f, required)
	if err != nil {
		return err
	}
	defer set.Close()
	if len(set.sinks) == 0 {
		return nil
	}
	pub := report.NewPublisher(a.cfg.Report, a.metrics, set.sinks...)
	if err := pub.Publish(ctx, r); err != nil {
		if required {
			return err
		}
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return nil
}

func printSuite(w io.Writer, suite benchmark.Suite) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEST\tRECORDS\tMEAN ms\tP95 ms\tOPS/s\tCACHE")
	for _, r := range suite.Results {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.1f\t%.0f%%\n",
			r.TestName, r.DataSize, r.MeanMs, r.P95Ms, r.Throughput, r.CacheHitRate*100)
	}
	tw.Flush()

	s := suite.Summary
	fmt.Fprintf(w, "\nsuite %s finished in %.1fms\n", suite.ID, suite.TotalTimeMs)
	fmt.Fprintf(w, "best:  %s\nworst: %s\naverage throughput: %.1f/s\n",
		s.Best.TestName, s.Worst.TestName, s.AverageThroughput)
	if len(s.Recommendations) > 0 {
		fmt.Fprintln(w, "\nrecommendations:")
		for _, rec := range s.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), want) {
			return true
		}
	}
	return false
}

func usageErr(format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.CodeUsage, format, args...)
}
