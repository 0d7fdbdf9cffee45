package filter

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
)

type Operator string

const (
	Equals     Operator = "equals"
	Contains   Operator = "contains"
	StartsWith Operator = "startsWith"
	EndsWith   Operator = "endsWith"
	GT         Operator = "gt"
	GTE        Operator = "gte"
	LT         Operator = "lt"
	LTE        Operator = "lte"
	Between    Operator = "between"
	In         Operator = "in"
)

// Condition is one predicate on a record field. Value is a scalar for the
// string and comparison operators, a Range (or a map with "min" and "max")
// for Between, and a slice for In.
type Condition struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value" yaml:"value"`
}

// Range is the inclusive operand of Between.
type Range struct {
	Min any `json:"min" yaml:"min"`
	Max any `json:"max" yaml:"max"`
}

// InvalidOperandError reports a value that could not be used as a number in
// strict mode.
type InvalidOperandError struct {
	Field    string
	Operator Operator
	Value    any
}

func (e *InvalidOperandError) Error() string {
	return fmt.Sprintf("invalid operand %#v for %s on field %q", e.Value, e.Operator, e.Field)
}

func (e *InvalidOperandError) Unwrap() error {
	return apperrors.ErrInvalidOperand
}

type predicate func(rec record.Record) (bool, error)

func (c Condition) compile(strict bool) (predicate, error) {
	switch c.Operator {
	case Equals, Contains, StartsWith, EndsWith:
		return c.compileString(), nil
	case GT, GTE, LT, LTE:
		return c.compileCompare(strict)
	case Between:
		return c.compileBetween(strict)
	case In:
		return c.compileIn(strict)
	}
	if strict {
		return nil, fmt.Errorf("condition on field %q: %w: %q", c.Field, apperrors.ErrUnknownOperator, c.Operator)
	}
	return nil, nil
}

// present is the predicate an unknown operator reduces to. A null or
// missing field fails every operator, unknown ones included.
func present(field string) predicate {
	return func(rec record.Record) (bool, error) {
		return rec[field] != nil, nil
	}
}

func (c Condition) compileString() predicate {
	want := record.Normalize(c.Value)
	var test func(string) bool
	switch c.Operator {
	case Equals:
		test = func(v string) bool { return v == want }
	case Contains:
		test = func(v string) bool { return strings.Contains(v, want) }
	case StartsWith:
		test = func(v string) bool { return strings.HasPrefix(v, want) }
	default:
		test = func(v string) bool { return strings.HasSuffix(v, want) }
	}
	field := c.Field
	return func(rec record.Record) (bool, error) {
		v := rec[field]
		if v == nil {
			return false, nil
		}
		return test(record.Normalize(v)), nil
	}
}

func (c Condition) number(v any, strict bool) (float64, error) {
	n, ok := record.ToNumber(v)
	if !ok && strict {
		return 0, &InvalidOperandError{Field: c.Field, Operator: c.Operator, Value: v}
	}
	return n, nil
}

func (c Condition) compileCompare(strict bool) (predicate, error) {
	operand, err := c.number(c.Value, strict)
	if err != nil {
		return nil, err
	}
	var test func(float64) bool
	switch c.Operator {
	case GT:
		test = func(v float64) bool { return v > operand }
	case GTE:
		test = func(v float64) bool { return v >= operand }
	case LT:
		test = func(v float64) bool { return v < operand }
	default:
		test = func(v float64) bool { return v <= operand }
	}
	return c.numeric(strict, test), nil
}

func (c Condition) compileBetween(strict bool) (predicate, error) {
	lo, hi, ok := rangeBounds(c.Value)
	if !ok && strict {
		return nil, &InvalidOperandError{Field: c.Field, Operator: c.Operator, Value: c.Value}
	}
	minV, err := c.number(lo, strict)
	if err != nil {
		return nil, err
	}
	maxV, err := c.number(hi, strict)
	if err != nil {
		return nil, err
	}
	return c.numeric(strict, func(v float64) bool { return v >= minV && v <= maxV }), nil
}

// numeric coerces the field value, treating non-numbers as 0 unless strict.
func (c Condition) numeric(strict bool, test func(float64) bool) predicate {
	field := c.Field
	return func(rec record.Record) (bool, error) {
		v := rec[field]
		if v == nil {
			return false, nil
		}
		n, err := c.number(v, strict)
		if err != nil {
			return false, err
		}
		return test(n), nil
	}
}

func rangeBounds(v any) (lo, hi any, ok bool) {
	switch r := v.(type) {
	case Range:
		return r.Min, r.Max, true
	case *Range:
		if r != nil {
			return r.Min, r.Max, true
		}
	case map[string]any:
		lo, okLo := r["min"]
		hi, okHi := r["max"]
		return lo, hi, okLo && okHi
	}
	return nil, nil, false
}

func (c Condition) compileIn(strict bool) (predicate, error) {
	rv := reflect.ValueOf(c.Value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		if strict {
			return nil, &InvalidOperandError{Field: c.Field, Operator: c.Operator, Value: c.Value}
		}
		return func(record.Record) (bool, error) { return false, nil }, nil
	}
	members := make([]any, rv.Len())
	for i := range members {
		members[i] = rv.Index(i).Interface()
	}
	field := c.Field
	return func(rec record.Record) (bool, error) {
		v := rec[field]
		if v == nil {
			return false, nil
		}
		for _, m := range members {
			if sameValue(v, m) {
				return true, nil
			}
		}
		return false, nil
	}, nil
}

// sameValue compares numbers numerically across Go kinds and everything
// else by deep equality. Strings are never coerced.
func sameValue(a, b any) bool {
	if record.IsNumeric(a) && record.IsNumeric(b) {
		x, _ := record.ToNumber(a)
		y, _ := record.ToNumber(b)
		return x == y
	}
	return reflect.DeepEqual(a, b)
}
