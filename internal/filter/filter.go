// Package filter applies AND-combined structured conditions to a record
// slice, independently of the text index.
package filter

import (
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/metrics"
)

// chunks is the number of contiguous slices a parallel run is split into.
const chunks = 4

type Options struct {
	// Parallel evaluates four contiguous chunks on separate goroutines. The
	// output order is the same as a sequential run.
	Parallel bool
	// Strict turns silent coercion into errors: non-numeric operands or
	// field values wrap ErrInvalidOperand and unknown operators return
	// ErrUnknownOperator. Without it an unknown operator passes every record
	// whose field is present and non-null.
	Strict  bool
	Metrics *metrics.Metrics
}

// OptionsFrom maps the filter section of the config file.
func OptionsFrom(cfg config.FilterConfig, m *metrics.Metrics) Options {
	return Options{Parallel: cfg.Parallel, Strict: cfg.Strict, Metrics: m}
}

// Apply returns the records that satisfy every condition, in input order.
// With no conditions every record passes.
func Apply(records []record.Record, conds []Condition, opts Options) ([]record.Record, error) {
	pos, err := Positions(records, conds, opts)
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, len(pos))
	for i, p := range pos {
		out[i] = records[p]
	}
	return out, nil
}

// Positions is Apply returning record positions instead of records.
func Positions(records []record.Record, conds []Condition, opts Options) ([]int, error) {
	preds, err := compile(conds, opts.Strict)
	if err != nil {
		return nil, err
	}
	if !opts.Parallel || len(records) < chunks {
		opts.Metrics.FilterRun("sequential")
		return scan(records, 0, len(records), preds)
	}

	opts.Metrics.FilterRun("chunked")
	size := (len(records) + chunks - 1) / chunks
	parts := make([][]int, chunks)
	var g errgroup.Group
	for i := 0; i < chunks; i++ {
		lo := i * size
		hi := min(lo+size, len(records))
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			matched, err := scan(records, lo, hi, preds)
			parts[i] = matched
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []int
	for _, p := range parts {
		out = append(out, p...)
	}
	if out == nil {
		out = []int{}
	}
	return out, nil
}

func compile(conds []Condition, strict bool) ([]predicate, error) {
	preds := make([]predicate, 0, len(conds))
	for _, c := range conds {
		p, err := c.compile(strict)
		if err != nil {
			return nil, err
		}
		if p == nil {
			slog.Default().With("component", "filter").Warn("unknown filter operator, only field presence is checked",
				"field", c.Field,
				"operator", c.Operator,
			)
			p = present(c.Field)
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func scan(records []record.Record, lo, hi int, preds []predicate) ([]int, error) {
	out := []int{}
	for pos := lo; pos < hi; pos++ {
		ok, err := matchAll(records[pos], preds)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, pos)
		}
	}
	return out, nil
}

func matchAll(rec record.Record, preds []predicate) (bool, error) {
	for _, p := range preds {
		ok, err := p(rec)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
