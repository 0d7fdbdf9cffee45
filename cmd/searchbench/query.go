package main

import (
	"bytes"
	"encoding/json"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/filter"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		recordsPath   string
		query         string
		fields        []string
		limit         int
		fuzzy         float64
		caseSensitive bool
		highlight     bool
		byPosition    bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Index a records file and print ranked matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if recordsPath == "" {
				return usageErr("--records is required")
			}
			recs, err := record.LoadFile(recordsPath)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				fields = textFields(recs)
			}
			eng := engine.New(a.cfg.Engine, a.metrics)
			eng.BuildIndex(recs, fields)

			opts := engine.Options{
				CaseSensitive:    caseSensitive,
				HighlightMatches: highlight,
				MaxResults:       limit,
				SortByRelevance:  engine.Bool(!byPosition),
			}
			if cmd.Flags().Changed("fuzzy") {
				opts.FuzzyThreshold = engine.Float(fuzzy)
			}
			results, err := eng.Search(recs, query, fields, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVarP(&recordsPath, "records", "r", "", "JSON, JSONL or YAML records file")
	cmd.Flags().StringVarP(&query, "query", "q", "", "search text")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to index and search (default: string fields of the first record)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results, 0 for all")
	cmd.Flags().Float64Var(&fuzzy, "fuzzy", 0.7, "enable fuzzy matching with this similarity threshold")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "match case exactly")
	cmd.Flags().BoolVar(&highlight, "highlight", false, "mark matches in the matched fields")
	cmd.Flags().BoolVar(&byPosition, "by-position", false, "keep record order instead of ranking")
	return cmd
}

// textFields returns the sorted string-valued fields of the first record.
func textFields(recs []record.Record) []string {
	if len(recs) == 0 {
		return nil
	}
	var out []string
	for k, v := range recs[0] {
		if _, ok := v.(string); ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func newFilterCmd(a *app) *cobra.Command {
	var (
		recordsPath string
		where       string
		whereFile   string
		parallel    bool
		strict      bool
	)
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Apply structured conditions to a records file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if recordsPath == "" {
				return usageErr("--records is required")
			}
			conds, err := readConditions(where, whereFile)
			if err != nil {
				return err
			}
			recs, err := record.LoadFile(recordsPath)
			if err != nil {
				return err
			}
			opts := filter.OptionsFrom(a.cfg.Filter, a.metrics)
			if cmd.Flags().Changed("parallel") {
				opts.Parallel = parallel
			}
			if cmd.Flags().Changed("strict") {
				opts.Strict = strict
			}
			matched, err := filter.Apply(recs, conds, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), matched)
		},
	}
	cmd.Flags().StringVarP(&recordsPath, "records", "r", "", "JSON, JSONL or YAML records file")
	cmd.Flags().StringVarP(&where, "where", "w", "", `conditions as JSON, e.g. '[{"field":"price","operator":"gt","value":10}]'`)
	cmd.Flags().StringVar(&whereFile, "where-file", "", "file holding the conditions JSON")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "evaluate in four concurrent chunks")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on non-numeric operands and unknown operators")
	cmd.MarkFlagsMutuallyExclusive("where", "where-file")
	return cmd
}

func readConditions(inline, path string) ([]filter.Condition, error) {
	data := []byte(inline)
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, usageErr("reading conditions: %v", err)
		}
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	var conds []filter.Condition
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&conds); err != nil {
		return nil, usageErr("parsing conditions: %v", err)
	}
	return conds, nil
}
