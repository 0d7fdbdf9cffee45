// Package errors defines the sentinel errors shared by the search, filter and
// benchmark packages, plus an AppError wrapper that carries a process exit
// code for the CLI.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrIndexNotBuilt   = errors.New("index not built")
	ErrStaleIndex      = errors.New("index is stale for the given records")
	ErrInvalidOperand  = errors.New("invalid operand")
	ErrUnknownOperator = errors.New("unknown filter operator")
	ErrSinkUnavailable = errors.New("report sink unavailable")
	ErrInternal        = errors.New("internal error")
)

const (
	CodeOK       = 0
	CodeInternal = 1
	CodeUsage    = 2
	CodeData     = 3
	CodeSink     = 4
)

type AppError struct {
	Err     error
	Message string
	Code    int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, code int, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
		Code:    code,
	}
}

func Newf(sentinel error, code int, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

// ExitCode maps an error to the exit status used by cmd/searchbench.
func ExitCode(err error) int {
	if err == nil {
		return CodeOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownOperator):
		return CodeUsage
	case errors.Is(err, ErrStaleIndex), errors.Is(err, ErrIndexNotBuilt), errors.Is(err, ErrInvalidOperand):
		return CodeData
	case errors.Is(err, ErrSinkUnavailable):
		return CodeSink
	default:
		return CodeInternal
	}
}
