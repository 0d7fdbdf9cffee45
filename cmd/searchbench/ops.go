package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/redis"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent reports stored in Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := pkgredis.NewClient(a.cfg.Redis)
			if err != nil {
				return fmt.Errorf("%w: %v", apperrors.ErrSinkUnavailable, err)
			}
			defer client.Close()

			reports, err := report.LoadHistory(cmd.Context(), client, a.cfg.Redis.KeyPrefix, limit, pkgredis.IsNilError)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SUITE\tTIMESTAMP\tCASES\tAVG OPS/s\tHOST")
			for _, r := range reports {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\t%s\n",
					r.Suite.ID, r.Timestamp.Format("2006-01-02 15:04:05"), len(r.Suite.Results),
					r.Suite.Summary.AverageThroughput, r.Environment.Hostname)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int64VarP(&limit, "limit", "n", 10, "number of reports")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow reports published to Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			consumer := kafka.NewConsumer(a.cfg.Kafka, a.cfg.Kafka.ReportTopic, func(_ context.Context, _, value []byte) error {
				r, err := report.DecodeEvent(value)
				if err != nil {
					return err
				}
				s := r.Suite.Summary
				fmt.Fprintf(out, "%s %s: %d cases, avg %.1f ops/s, best %q, worst %q\n",
					r.Timestamp.Format("15:04:05"), r.Suite.ID, len(r.Suite.Results),
					s.AverageThroughput, s.Best.TestName, s.Worst.TestName)
				return nil
			})
			return consumer.Run(cmd.Context())
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe the configured report sinks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checker := health.NewChecker()
			for _, name := range a.cfg.Report.Sinks {
				name = strings.ToLower(strings.TrimSpace(name))
				check, err := sinkCheck(a, name)
				if err != nil {
					return err
				}
				checker.Register(name, check)
			}
			if a.cfg.Report.OutputPath != "" {
				checker.Register("file", sinkCheckFile(a.cfg.Report.OutputPath))
			}

			rep := checker.Run(cmd.Context())
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SINK\tSTATUS\tLATENCY\tMESSAGE")
			for _, name := range rep.Names() {
				c := rep.Components[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, c.Status, c.Latency, c.Message)
			}
			tw.Flush()
			if rep.Status != health.StatusUp {
				return fmt.Errorf("%w: one or more sinks are down", apperrors.ErrSinkUnavailable)
			}
			return nil
		},
	}
}

func sinkCheck(a *app, name string) (health.Check, error) {
	switch name {
	case "file":
		return sinkCheckFile(a.cfg.Report.OutputPath), nil
	case "redis":
		return func(context.Context) error {
			client, err := pkgredis.NewClient(a.cfg.Redis)
			if err != nil {
				return err
			}
			return client.Close()
		}, nil
	case "postgres":
		return func(context.Context) error {
			client, err := postgres.New(a.cfg.Postgres)
			if err != nil {
				return err
			}
			return client.Close()
		}, nil
	case "kafka":
		return func(ctx context.Context) error { return kafka.Ping(ctx, a.cfg.Kafka) }, nil
	}
	return nil, usageErr("unknown report sink %q", name)
}

// sinkCheckFile verifies the directory a report would be written to.
func sinkCheckFile(path string) health.Check {
	return func(context.Context) error {
		if path == "" {
			return fmt.Errorf("report.outputPath is not set")
		}
		dir := path
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			dir = filepath.Dir(path)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}
}
