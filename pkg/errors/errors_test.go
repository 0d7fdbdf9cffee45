package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidInput, CodeUsage, "data size %d out of range", 0)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "invalid input: data size 0 out of range", err.Error())
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, CodeOK},
		{"app error", New(ErrInternal, CodeSink, "x"), CodeSink},
		{"wrapped usage", fmt.Errorf("run: %w", ErrInvalidInput), CodeUsage},
		{"stale", ErrStaleIndex, CodeData},
		{"operand", fmt.Errorf("filter: %w", ErrInvalidOperand), CodeData},
		{"sink", ErrSinkUnavailable, CodeSink},
		{"other", errors.New("boom"), CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}
