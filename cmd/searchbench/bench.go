package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/benchmark"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		name       string
		queries    []string
		size       int
		iterations int
		complexity string
		records    string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single benchmark case",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := benchmark.ParseComplexity(complexity)
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				queries = queriesFor(c)
			}
			if records == "" {
				a.cfg.Benchmark.DatasetSize = size
			}
			runner, err := newRunner(a, records)
			if err != nil {
				return err
			}
			res, err := runner.RunBenchmark(name, queries, size, iterations, c)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&name, "name", "adhoc", "benchmark name")
	cmd.Flags().StringSliceVarP(&queries, "query", "q", nil, "queries to cycle through (default: the complexity's query set)")
	cmd.Flags().IntVar(&size, "size", 1000, "number of records to index")
	cmd.Flags().IntVar(&iterations, "iterations", 50, "timed searches")
	cmd.Flags().StringVar(&complexity, "complexity", "simple", "simple|medium|complex")
	cmd.Flags().StringVar(&records, "records", "", "records file instead of synthetic data")
	return cmd
}

func queriesFor(c benchmark.Complexity) []string {
	switch c {
	case benchmark.Medium:
		return benchmark.MediumQueries
	case benchmark.Complex:
		return benchmark.ComplexQueries
	default:
		return benchmark.SimpleQueries
	}
}

func newProfileCmd(a *app) *cobra.Command {
	var (
		query      string
		size       int
		iterations int
		records    string
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile one query and one index build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if query == "" {
				return usageErr("--query is required")
			}
			if records == "" {
				a.cfg.Benchmark.DatasetSize = size
			}
			runner, err := newRunner(a, records)
			if err != nil {
				return err
			}
			data := runner.Dataset()
			p, err := runner.ProfileQuery(data, benchmark.SearchFields, query, iterations)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				Query    benchmark.Profile        `json:"query"`
				Indexing benchmark.IndexingReport `json:"indexing"`
			}{p, runner.MeasureIndexing(data, benchmark.SearchFields)})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "query to profile")
	cmd.Flags().IntVar(&size, "size", 1000, "synthetic dataset size")
	cmd.Flags().IntVar(&iterations, "iterations", 100, "repetitions")
	cmd.Flags().StringVar(&records, "records", "", "records file instead of synthetic data")
	return cmd
}

func newCompareCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare BASELINE CURRENT",
		Short: "Compare two exported reports test by test",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := readReport(args[0])
			if err != nil {
				return err
			}
			current, err := readReport(args[1])
			if err != nil {
				return err
			}
			return printComparison(cmd.OutOrStdout(), baseline, current)
		},
	}
}

func readReport(path string) (benchmark.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return benchmark.Report{}, usageErr("reading report %s: %v", path, err)
	}
	f := benchmark.FormatJSON
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		f = benchmark.FormatYAML
	}
	return benchmark.ParseReport(data, f)
}

// printComparison matches results by test name; tests missing from either
// side are listed but not compared.
func printComparison(w io.Writer, baseline, current benchmark.Report) error {
	base := make(map[string]benchmark.Result, len(baseline.Suite.Results))
	for _, r := range baseline.Suite.Results {
		base[r.TestName] = r
	}
	for _, r := range current.Suite.Results {
		b, ok := base[r.TestName]
		if !ok {
			fmt.Fprintf(w, "%s: no baseline\n", r.TestName)
			continue
		}
		delete(base, r.TestName)
		c := benchmark.Compare(r, b)
		fmt.Fprintf(w, "%s: latency %+.1f%% throughput %+.1f%% memory %+.1f%%\n  %s\n",
			r.TestName, c.LatencyChange, c.ThroughputChange, c.MemoryChange, c.Verdict)
	}
	for _, r := range baseline.Suite.Results {
		if _, ok := base[r.TestName]; ok {
			fmt.Fprintf(w, "%s: missing from current run\n", r.TestName)
		}
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
