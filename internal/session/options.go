package session

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultGracePeriod is how long a terminated child may take to exit
// before it is killed.
const DefaultGracePeriod = 5 * time.Second

// minDrain is the least time output collection may lag behind a reaped
// child before its pipes are closed from our side.
const minDrain = 50 * time.Millisecond

// Boundary selects what counts as a complete reply.
type Boundary int

const (
	// BoundaryExit collects output until the child closes its streams and exits.
	BoundaryExit Boundary = iota
	// BoundaryLine collects one newline-terminated stdout line.
	BoundaryLine
)

// String returns a human-readable boundary name.
func (b Boundary) String() string {
	switch b {
	case BoundaryExit:
		return "exit"
	case BoundaryLine:
		return "line"
	default:
		return fmt.Sprintf("unknown(%d)", int(b))
	}
}

// Option configures a Session.
type Option func(*options)

type options struct {
	log             *slog.Logger
	timeout         time.Duration
	gracePeriod     time.Duration
	boundary        Boundary
	closeStdin      bool
	preservePartial bool
	stderrCallback  func(string)
}

func defaultOptions() options {
	return options{
		gracePeriod:     DefaultGracePeriod,
		boundary:        BoundaryExit,
		closeStdin:      true,
		preservePartial: true,
	}
}

// WithLogger sets the logger for exchange tracing.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithTimeout bounds every exchange. Zero blocks indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithGracePeriod sets how long a terminated child may take to exit before
// it is killed. Zero kills immediately.
func WithGracePeriod(d time.Duration) Option {
	return func(o *options) {
		o.gracePeriod = d
	}
}

// WithBoundary selects the reply boundary.
func WithBoundary(b Boundary) Option {
	return func(o *options) {
		o.boundary = b
	}
}

// WithCloseStdin controls whether a BoundaryExit exchange closes stdin
// after writing the request. It is on by default so children that read
// until end-of-input can finish.
func WithCloseStdin(closeStdin bool) Option {
	return func(o *options) {
		o.closeStdin = closeStdin
	}
}

// WithPreservePartial controls whether output captured before a timeout or
// cancellation is kept in the Outcome. It is on by default.
func WithPreservePartial(preserve bool) Option {
	return func(o *options) {
		o.preservePartial = preserve
	}
}

// WithStderrCallback receives every stderr line as it arrives.
func WithStderrCallback(fn func(string)) Option {
	return func(o *options) {
		o.stderrCallback = fn
	}
}
