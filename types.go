package procsup

import (
	"github.com/wagiedev/procsup-go/internal/session"
	"github.com/wagiedev/procsup-go/internal/subprocess"
)

// Outcome is the result of one pipe exchange.
type Outcome = session.Outcome

// Status tags how an exchange resolved.
type Status = session.Status

// Exchange statuses.
const (
	StatusCompleted = session.StatusCompleted
	StatusTimedOut  = session.StatusTimedOut
	StatusCancelled = session.StatusCancelled
)

// Boundary selects what counts as a complete pipe reply.
type Boundary = session.Boundary

// Reply boundaries.
const (
	// BoundaryExit reads until the child closes its output and exits.
	BoundaryExit = session.BoundaryExit
	// BoundaryLine reads one newline-terminated line; the child keeps running.
	BoundaryLine = session.BoundaryLine
)

// ExitStatus describes how a child process ended.
type ExitStatus = subprocess.ExitStatus

// State is the lifecycle state of a child process.
type State = subprocess.State

// Process states.
const (
	StateRunning = subprocess.StateRunning
	StateExited  = subprocess.StateExited
	StateKilled  = subprocess.StateKilled
)

// DefaultGracePeriod is the wait between terminate and kill.
const DefaultGracePeriod = session.DefaultGracePeriod
