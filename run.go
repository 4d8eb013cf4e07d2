package procsup

import (
	"context"
	"slices"
	"time"

	"github.com/wagiedev/procsup-go/internal/errors"
)

// Result is the captured outcome of Run.
type Result struct {
	// Argv is the command that ran.
	Argv []string

	// Stdout and Stderr hold everything the child wrote, or what it wrote
	// before being stopped.
	Stdout string
	Stderr string

	// Exit is how the child ended.
	Exit ExitStatus

	// Status tells whether the child finished on its own.
	Status Status

	// Duration is the wall time of the exchange.
	Duration time.Duration
}

// ExitCode returns the child's exit code, -1 if a signal ended it.
func (r *Result) ExitCode() int {
	return r.Exit.Code
}

// Run starts argv, writes the WithInput data (newline-terminated) to its
// stdin, closes stdin, and captures stdout and stderr until the child exits.
//
// The returned Result is non-nil whenever the child was started. The error is
//   - *ExitError when the child exited with a non-zero code,
//   - *TimeoutError (matching context.DeadlineExceeded) when the timeout
//     or ctx deadline elapsed and the child was terminated,
//   - ctx's error when ctx was cancelled,
//   - *SpawnError when the child could not be started.
func Run(ctx context.Context, argv []string, opts ...Option) (*Result, error) {
	opts = append(slices.Clone(opts), WithBoundary(BoundaryExit), WithCloseStdin(true))

	var result *Result

	err := WithChild(ctx, argv, func(c *Child) error {
		out, err := c.Exchange(ctx, c.opts.Input)
		if err != nil {
			return err
		}

		result = &Result{
			Argv:     c.Argv(),
			Stdout:   out.Stdout,
			Stderr:   out.Stderr,
			Status:   out.Status,
			Duration: out.Duration,
		}

		if out.Exit != nil {
			result.Exit = *out.Exit
		}

		switch out.Status {
		case StatusTimedOut:
			return &errors.TimeoutError{Pid: c.Pid(), Timeout: c.opts.Timeout, Err: context.DeadlineExceeded}
		case StatusCancelled:
			return context.Canceled
		}

		if !result.Exit.Success() {
			return &errors.ExitError{ExitCode: result.Exit.Code, Stderr: out.Stderr}
		}

		return nil
	}, opts...)

	return result, err
}
