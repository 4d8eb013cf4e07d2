package procsup

import (
	"log/slog"
	"time"

	"github.com/wagiedev/procsup-go/internal/config"
)

// Options holds the settings applied to a supervised child.
type Options = config.Options

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options on top of the defaults.
func applyOptions(opts []Option) *Options {
	options := config.DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for lifecycle and exchange tracing.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithCwd sets the working directory for the child process.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// WithEnv overrides environment variables for the child process.
// Variables not named are inherited from the parent.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// WithSearchPaths adds directories searched for the executable after $PATH.
func WithSearchPaths(paths ...string) Option {
	return func(o *Options) {
		o.SearchPaths = paths
	}
}

// WithStderr sets a callback receiving each stderr line of the child.
func WithStderr(handler func(string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}

// ===== Pipe Exchanges =====

// WithTimeout bounds every exchange. Zero blocks indefinitely.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithGracePeriod sets how long the child may take to exit after being
// asked to. Zero kills immediately.
func WithGracePeriod(grace time.Duration) Option {
	return func(o *Options) {
		o.GracePeriod = grace
	}
}

// WithBoundary selects the reply boundary for exchanges.
func WithBoundary(boundary Boundary) Option {
	return func(o *Options) {
		o.Boundary = boundary
	}
}

// WithCloseStdin controls whether an exit-boundary exchange closes stdin
// after the request. Defaults to true.
func WithCloseStdin(closeStdin bool) Option {
	return func(o *Options) {
		o.CloseStdin = closeStdin
	}
}

// WithPreservePartial controls whether output captured before a timeout
// or cancellation is kept. Defaults to true.
func WithPreservePartial(preserve bool) Option {
	return func(o *Options) {
		o.PreservePartial = preserve
	}
}

// WithInput sets the data Run writes to the child's stdin.
func WithInput(input string) Option {
	return func(o *Options) {
		o.Input = input
	}
}

// ===== Socket Exchanges =====

// WithSocketAddress sets the address of the child's line server used by
// Child.Send.
func WithSocketAddress(host string, port int) Option {
	return func(o *Options) {
		o.SocketHost = host
		o.SocketPort = port
	}
}

// WithConnectTimeout bounds the TCP connect of a socket exchange.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.ConnectTimeout = timeout
	}
}

// WithReadTimeout bounds the reply read of a socket exchange.
// Zero leaves it unbounded.
func WithReadTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.ReadTimeout = timeout
	}
}

// Settings is the file and environment configuration, see LoadSettings.
type Settings = config.Settings

// WithSettings applies every value from s, typically loaded from a config
// file. It replaces everything set before it except the logger; options
// given after it override individual values.
func WithSettings(s *Settings) Option {
	return func(o *Options) {
		log := o.Logger
		*o = *s.Options(log)
	}
}
