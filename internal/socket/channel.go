package socket

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/wagiedev/procsup-go/internal/errors"
)

// DefaultConnectTimeout bounds a connection attempt unless overridden.
const DefaultConnectTimeout = 5 * time.Second

// Option configures a Channel.
type Option func(*options)

type options struct {
	connectTimeout time.Duration
	readTimeout    time.Duration
	log            *slog.Logger
}

// WithConnectTimeout bounds the connection attempt. Zero means no bound
// beyond the context.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = d
	}
}

// WithReadTimeout bounds the write and the reply read. Zero means no bound
// beyond the context.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

// WithLogger sets the logger used for exchange tracing.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Channel addresses a listening peer. It holds no connection; every Send
// opens and closes its own.
type Channel struct {
	Host string
	Port int

	opts options
}

// New creates a Channel for host:port.
func New(host string, port int, opts ...Option) *Channel {
	c := &Channel{
		Host: host,
		Port: port,
		opts: options{connectTimeout: DefaultConnectTimeout},
	}

	for _, opt := range opts {
		opt(&c.opts)
	}

	if c.opts.log == nil {
		c.opts.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c.opts.log = c.opts.log.With("component", "socket_channel")

	return c
}

// Send performs a single exchange with host:port. See Channel.Send.
func Send(ctx context.Context, host string, port int, message string, opts ...Option) (string, error) {
	return New(host, port, opts...).Send(ctx, message)
}

// Addr returns the dial address.
func (c *Channel) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Send connects, writes message followed by a newline, and returns the
// reply line including its trailing newline. A reply cut short by the peer
// closing the connection is returned as-is.
//
// Returns *errors.ConnectionRefusedError when nothing listens at the
// address, *errors.ConnectTimeoutError when the connect timeout elapses,
// and *errors.ProtocolError when the exchange fails after connecting.
func (c *Channel) Send(ctx context.Context, message string) (string, error) {
	addr := c.Addr()

	conn, err := c.dial(ctx, addr)
	if err != nil {
		c.opts.log.Debug("Connect failed", "addr", addr, "error", err)

		return "", err
	}
	defer conn.Close()

	// Unblock pending I/O when the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if c.opts.readTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.opts.readTimeout))
	}

	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}

	c.opts.log.Debug("Sending message", "addr", addr, "data_len", len(message))

	if _, err := io.WriteString(conn, message); err != nil {
		return "", c.exchangeError(ctx, addr, "write", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			if reply == "" {
				return "", &errors.ProtocolError{Addr: addr, Op: "read", Err: errors.ErrEmptyReply}
			}

			return reply, nil
		}

		return "", c.exchangeError(ctx, addr, "read", err)
	}

	c.opts.log.Debug("Received reply", "addr", addr, "data_len", len(reply))

	return reply, nil
}

// Probe connects and immediately disconnects without sending anything.
// It reports whether a listener accepts connections at the address, with
// the same error classification as Send.
func (c *Channel) Probe(ctx context.Context) error {
	conn, err := c.dial(ctx, c.Addr())
	if err != nil {
		return err
	}

	return conn.Close()
}

// dial opens the connection and classifies connect failures.
func (c *Channel) dial(ctx context.Context, addr string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.opts.connectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err == nil {
		return conn, nil
	}

	if isConnectionRefused(err) {
		return nil, &errors.ConnectionRefusedError{Addr: addr, Err: err}
	}

	if stderrors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	if netErr, ok := stderrors.AsType[net.Error](err); (ok && netErr.Timeout()) || stderrors.Is(err, context.DeadlineExceeded) {
		return nil, &errors.ConnectTimeoutError{Addr: addr, Timeout: c.opts.connectTimeout, Err: err}
	}

	return nil, fmt.Errorf("connect %s: %w", addr, err)
}

// exchangeError wraps an I/O failure after connect, preferring the
// context's error when the caller cancelled.
func (c *Channel) exchangeError(ctx context.Context, addr, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}

	return &errors.ProtocolError{Addr: addr, Op: op, Err: err}
}
