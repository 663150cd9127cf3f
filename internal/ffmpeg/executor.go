package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/planner"
)

// ExecResult holds the outcome of a single ffmpeg invocation.
type ExecResult struct {
	Args   []string
	Stderr string
	Err    error // nil, a context error, or a *ToolError.
}

// Execute builds and runs the ffmpeg command for a render. When verbose is
// enabled, stderr is tee'd to os.Stderr in real time; otherwise it is
// captured silently for classification.
func Execute(ctx context.Context, cfg *config.Config, plan *planner.RenderPlan, rs *RetryState) ExecResult {
	args := Build(cfg, plan, rs)
	var tee io.Writer
	if cfg.Verbose {
		tee = os.Stderr
	}
	return Run(ctx, args, tee)
}

// Run executes args (args[0] is the binary) and captures stderr. A non-nil
// tee receives stderr as it is produced. When ctx is cancelled the process
// is killed and the context error is returned instead of a ToolError.
func Run(ctx context.Context, args []string, tee io.Writer) ExecResult {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderrBuf bytes.Buffer
	if tee != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, tee)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	res := ExecResult{Args: args, Stderr: stderrBuf.String()}
	switch {
	case err == nil:
	case ctx.Err() != nil:
		res.Err = ctx.Err()
	default:
		res.Err = newToolError(args, res.Stderr, err)
	}
	return res
}

func newToolError(args []string, stderr string, err error) *ToolError {
	te := &ToolError{
		Tool:     args[0],
		Args:     args,
		ExitCode: -1,
		Stderr:   stderr,
		Reason:   Classify(stderr),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		te.ExitCode = exitErr.ExitCode()
	}
	return te
}
