package procsup

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wagiedev/procsup-go/internal/errors"
	"github.com/wagiedev/procsup-go/internal/session"
	"github.com/wagiedev/procsup-go/internal/socket"
	"github.com/wagiedev/procsup-go/internal/subprocess"
)

// listenerPollInterval is the pause between connection attempts in
// WaitForListener.
const listenerPollInterval = 50 * time.Millisecond

// Child is a running child process under a Supervisor.
//
// Exchange talks to the child over its stdin/stdout pipes; Send talks to
// its line server over TCP when a socket address is configured. Exchanges
// on the pipes are serialised; Send may be used concurrently.
type Child struct {
	sup  *Supervisor
	proc *subprocess.Process
	opts *Options
	log  *slog.Logger

	session *session.Session
	channel *socket.Channel // nil without a socket address

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newChild(sup *Supervisor, proc *subprocess.Process, opts *Options, log *slog.Logger) *Child {
	c := &Child{
		sup:  sup,
		proc: proc,
		opts: opts,
		log:  log,
	}

	c.session = session.New(proc, append(opts.SessionOptions(), session.WithLogger(log))...)

	if opts.SocketPort > 0 {
		c.channel = socket.New(opts.SocketHost, opts.SocketPort,
			append(opts.SocketOptions(), socket.WithLogger(log))...)
	}

	return c
}

// ID returns the child's unique identifier.
func (c *Child) ID() string {
	return c.proc.ID()
}

// Pid returns the OS process ID.
func (c *Child) Pid() int {
	return c.proc.Pid()
}

// Argv returns the argument vector the child was started with.
func (c *Child) Argv() []string {
	return c.proc.Argv()
}

// State returns the lifecycle state of the child process.
func (c *Child) State() State {
	return c.proc.State()
}

// Done is closed once the child has been reaped.
func (c *Child) Done() <-chan struct{} {
	return c.proc.Done()
}

// Exchange writes request to the child's stdin and collects the reply
// according to the configured boundary, timeout, and grace period.
//
// A timeout or cancellation is reported in the Outcome, not as an error:
// the child has then been terminated (and killed if needed) and reaped.
func (c *Child) Exchange(ctx context.Context, request string) (Outcome, error) {
	if c.closed.Load() {
		return Outcome{}, errors.ErrChildClosed
	}

	return c.session.Exchange(ctx, request)
}

// Send performs one line exchange with the child's TCP line server.
// Returns ErrNoSocketAddress when no address was configured.
func (c *Child) Send(ctx context.Context, message string) (string, error) {
	if c.closed.Load() {
		return "", errors.ErrChildClosed
	}

	if c.channel == nil {
		return "", errors.ErrNoSocketAddress
	}

	return c.channel.Send(ctx, message)
}

// WaitForListener blocks until the child's line server accepts
// connections, the child exits, or ctx is done.
func (c *Child) WaitForListener(ctx context.Context) error {
	if c.channel == nil {
		return errors.ErrNoSocketAddress
	}

	ticker := time.NewTicker(listenerPollInterval)
	defer ticker.Stop()

	for {
		err := c.channel.Probe(ctx)
		if err == nil {
			c.log.Debug("Listener is up", "addr", c.channel.Addr())

			return nil
		}

		if !stderrors.Is(err, errors.ErrConnectionRefused) && !stderrors.Is(err, errors.ErrConnectTimeout) {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for listener on %s: %w", c.channel.Addr(), ctx.Err())
		case <-c.proc.Done():
			status, _ := c.proc.Poll()

			return fmt.Errorf("wait for listener on %s: child exited (%s): %w", c.channel.Addr(), status, err)
		case <-ticker.C:
		}
	}
}

// Poll reports the exit status without blocking; false means still running.
func (c *Child) Poll() (ExitStatus, bool) {
	return c.proc.Poll()
}

// Wait blocks until the child exits or ctx is done. On ctx expiry it
// returns *WaitTimeoutError and leaves the child running.
func (c *Child) Wait(ctx context.Context) (ExitStatus, error) {
	return c.proc.Wait(ctx)
}

// Close shuts the child down and releases its pipes. It closes stdin and
// waits up to the grace period for a voluntary exit, then terminates,
// waits the grace period again, kills if still running, and reaps.
//
// ctx bounds the voluntary wait: once it is done the child is killed
// without further grace and Close returns ctx's error after reaping.
// Close is idempotent; later calls return the first result.
func (c *Child) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closeErr = c.shutdown(ctx)
	})

	return c.closeErr
}

func (c *Child) shutdown(ctx context.Context) error {
	c.closed.Store(true)

	defer c.sup.forget(c.ID())
	defer c.proc.Release()

	if status, exited := c.proc.Poll(); exited {
		c.log.Debug("Child already exited", "exit", status.String())

		return nil
	}

	if err := c.proc.CloseStdin(); err != nil {
		c.log.Debug("Closing stdin failed", "error", err)
	}

	grace := c.opts.GracePeriod

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-c.proc.Done():
		status, _ := c.proc.Poll()
		c.log.Info("Child exited", "exit", status.String())

		return nil
	case <-timer.C:
	case <-ctx.Done():
		grace = 0
	}

	status, killed := session.Terminate(c.log, c.proc, grace)

	c.log.Info("Child stopped", "exit", status.String(), "killed", killed)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("close pid %d: killed without grace: %w", c.proc.Pid(), err)
	}

	return nil
}
