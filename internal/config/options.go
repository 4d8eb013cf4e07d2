package config

import (
	"log/slog"
	"time"

	"github.com/wagiedev/procsup-go/internal/session"
	"github.com/wagiedev/procsup-go/internal/socket"
)

// Options configures how the supervisor spawns children and talks to them.
type Options struct {
	// Logger is the slog logger for lifecycle and exchange tracing.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Cwd sets the working directory for the child process.
	// If empty, the child inherits the parent's working directory.
	Cwd string

	// Env overrides environment variables for the child process.
	// Names not listed are inherited from the parent.
	Env map[string]string

	// SearchPaths are extra directories searched for the executable
	// after $PATH.
	SearchPaths []string

	// Input is written to the child's stdin by a one-shot run.
	Input string

	// Timeout bounds every pipe exchange. Zero blocks indefinitely.
	Timeout time.Duration

	// GracePeriod is how long a terminated child may take to exit before
	// it is killed. It also bounds the voluntary exit after stdin is closed
	// when a child is released.
	GracePeriod time.Duration

	// Boundary selects what counts as a complete reply on the pipes.
	Boundary session.Boundary

	// CloseStdin closes the child's stdin after the request in exit mode.
	CloseStdin bool

	// PreservePartial keeps output captured before a timeout or cancellation.
	PreservePartial bool

	// Stderr is a callback function for handling stderr output.
	Stderr func(string)

	// SocketHost and SocketPort address the child's line server.
	// A zero port means the child has no socket channel.
	SocketHost string
	SocketPort int

	// ConnectTimeout bounds the TCP connect of a socket exchange.
	ConnectTimeout time.Duration

	// ReadTimeout bounds the reply read of a socket exchange.
	// Zero leaves it unbounded.
	ReadTimeout time.Duration
}

// DefaultOptions returns Options with the documented defaults applied.
func DefaultOptions() *Options {
	return &Options{
		GracePeriod:     session.DefaultGracePeriod,
		Boundary:        session.BoundaryExit,
		CloseStdin:      true,
		PreservePartial: true,
		SocketHost:      "localhost",
		ConnectTimeout:  socket.DefaultConnectTimeout,
	}
}

// SessionOptions translates o into options for a pipe session.
func (o *Options) SessionOptions() []session.Option {
	opts := []session.Option{
		session.WithLogger(o.Logger),
		session.WithTimeout(o.Timeout),
		session.WithGracePeriod(o.GracePeriod),
		session.WithBoundary(o.Boundary),
		session.WithCloseStdin(o.CloseStdin),
		session.WithPreservePartial(o.PreservePartial),
	}

	if o.Stderr != nil {
		opts = append(opts, session.WithStderrCallback(o.Stderr))
	}

	return opts
}

// SocketOptions translates o into options for a socket channel.
func (o *Options) SocketOptions() []socket.Option {
	opts := []socket.Option{
		socket.WithConnectTimeout(o.ConnectTimeout),
		socket.WithReadTimeout(o.ReadTimeout),
	}

	if o.Logger != nil {
		opts = append(opts, socket.WithLogger(o.Logger))
	}

	return opts
}
