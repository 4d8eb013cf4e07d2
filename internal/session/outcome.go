package session

import (
	"fmt"
	"time"

	"github.com/wagiedev/procsup-go/internal/subprocess"
)

// Status tags how an exchange resolved.
type Status int

const (
	// StatusCompleted means the reply boundary was reached before the deadline.
	StatusCompleted Status = iota
	// StatusTimedOut means the deadline elapsed and the child was terminated.
	StatusTimedOut
	// StatusCancelled means the caller cancelled and the child was terminated.
	StatusCancelled
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusTimedOut:
		return "timed_out"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Outcome is the result of one exchange.
type Outcome struct {
	// ID identifies the exchange in logs.
	ID string

	// Status tags the outcome.
	Status Status

	// Stdout is the reply. For TimedOut and Cancelled outcomes it holds the
	// partial output captured before termination, unless partial output
	// preservation was disabled.
	Stdout string

	// Stderr is the error output produced during the exchange.
	Stderr string

	// Exit is the child's exit status once it has been reaped. It is nil
	// when a line exchange completed and the child is still running.
	Exit *subprocess.ExitStatus

	// Terminated reports that the exchange had to stop the child.
	Terminated bool

	// Killed reports that the child ignored termination for the whole grace
	// period and was force-killed.
	Killed bool

	// Duration is the wall time from request write to resolution.
	Duration time.Duration
}

// Completed reports whether the exchange reached its reply boundary.
func (o Outcome) Completed() bool {
	return o.Status == StatusCompleted
}

// ExitCode returns the child's exit code when it is known.
func (o Outcome) ExitCode() (int, bool) {
	if o.Exit == nil {
		return 0, false
	}

	return o.Exit.Code, true
}
