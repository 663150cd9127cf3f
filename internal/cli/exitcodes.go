package cli

import (
	"context"
	"errors"

	"github.com/backmassage/stillmux/internal/check"
	"github.com/backmassage/stillmux/internal/ffmpeg"
	"github.com/backmassage/stillmux/internal/pipeline"
	"github.com/backmassage/stillmux/internal/planner"
	"github.com/backmassage/stillmux/internal/probe"
	"github.com/backmassage/stillmux/internal/timing"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitUsage        = 2
	ExitMissingInput = 3
	ExitToolFailure  = 4
	ExitDependency   = 5
	ExitInterrupted  = 130
)

// UsageError marks a bad command line: wrong argument count, a malformed
// flag, or a configuration that fails validation.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usageErrorf(err error) error {
	if err == nil {
		return nil
	}
	return &UsageError{Err: err}
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	var (
		usageErr *UsageError
		depErr   *check.DependencyError
		toolErr  *ffmpeg.ToolError
		batchErr *pipeline.BatchError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &batchErr):
		return ExitToolFailure
	case errors.As(err, &depErr):
		return ExitDependency
	case errors.As(err, &usageErr),
		errors.Is(err, timing.ErrInvalidArgument),
		errors.Is(err, pipeline.ErrInvalidOutput),
		errors.Is(err, pipeline.ErrOutputExists):
		return ExitUsage
	case errors.Is(err, pipeline.ErrMissingInput),
		errors.Is(err, planner.ErrNoAudioStream):
		return ExitMissingInput
	case errors.As(err, &toolErr),
		errors.Is(err, probe.ErrProbeFailed),
		errors.Is(err, pipeline.ErrEmptyOutput):
		return ExitToolFailure
	default:
		return ExitFailure
	}
}
