package session

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/procsup-go/internal/errors"
	"github.com/wagiedev/procsup-go/internal/subprocess"
)

const (
	// maxScanTokenSize is the read buffer size for child stdout.
	maxScanTokenSize = 64 * 1024
	// maxStderrBufferSize is the maximum size for the stderr buffer.
	// Stderr reading continues indefinitely (callback receives all lines),
	// but the buffer stops growing after this limit to prevent unbounded memory usage.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB
)

// Session runs exchanges against one child process, one at a time.
//
// The Session takes exclusive ownership of the child's stdout and stderr:
// nothing else may read them while the Session is in use.
type Session struct {
	log  *slog.Logger
	proc *subprocess.Process
	opts options

	mu     sync.Mutex // Serialises exchanges
	closed bool

	stdout *bufio.Reader

	stderrMu   sync.Mutex
	stderrBuf  bytes.Buffer
	stderrDone chan struct{}
}

// New creates a Session for proc and starts draining its stderr.
func New(proc *subprocess.Process, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	log := o.log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Session{
		log:        log.With("component", "pipe_session", "pid", proc.Pid()),
		proc:       proc,
		opts:       o,
		stdout:     bufio.NewReaderSize(proc.Stdout(), maxScanTokenSize),
		stderrDone: make(chan struct{}),
	}

	go s.pumpStderr()

	return s
}

// Process returns the child this Session talks to.
func (s *Session) Process() *subprocess.Process {
	return s.proc
}

// Closed reports whether the Session has ended: after an escalation, or
// once the child's output has ended.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// pumpStderr drains stderr for the lifetime of the child so that a chatty
// stderr can never stall stdout.
func (s *Session) pumpStderr() {
	defer close(s.stderrDone)

	reader := bufio.NewReader(s.proc.Stderr())

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			s.stderrMu.Lock()

			if s.stderrBuf.Len() < maxStderrBufferSize {
				s.stderrBuf.WriteString(line)
			}

			s.stderrMu.Unlock()

			if s.opts.stderrCallback != nil {
				s.opts.stderrCallback(strings.TrimRight(line, "\r\n"))
			}
		}

		if err != nil {
			if !stderrors.Is(err, io.EOF) {
				s.log.Debug("Stderr read ended", "error", err)
			}

			return
		}
	}
}

// takeStderr returns and clears the stderr collected so far.
func (s *Session) takeStderr() string {
	s.stderrMu.Lock()
	defer s.stderrMu.Unlock()

	out := s.stderrBuf.String()
	s.stderrBuf.Reset()

	return out
}

// Exchange writes request (newline-terminated) to the child and collects
// the reply. In exit mode an empty request writes nothing, and the request
// is written while the reply is being read.
//
// The exchange is bounded by the Session timeout and by ctx. When either
// ends first the child is terminated, given the grace period, killed if
// still alive, and reaped; the Outcome is then TimedOut (deadline) or
// Cancelled (cancellation) and the Session is closed.
//
// Errors are returned only when no exchange took place: ctx was already
// done, the Session is closed (errors.ErrSessionClosed), or the request
// could not be written in line mode (*errors.BrokenPipeError).
//
// Stderr in the Outcome is whatever the child wrote to stderr since the
// previous exchange returned.
func (s *Session) Exchange(ctx context.Context, request string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Outcome{}, errors.ErrSessionClosed
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	id := ulid.Make().String()
	log := s.log.With("exchange_id", id)

	exCtx := ctx

	if s.opts.timeout > 0 {
		var cancel context.CancelFunc

		exCtx, cancel = context.WithTimeout(ctx, s.opts.timeout)
		defer cancel()
	}

	start := time.Now()

	log.Debug("Starting exchange", "boundary", s.opts.boundary.String(), "timeout", s.opts.timeout, "data_len", len(request))

	if s.opts.boundary == BoundaryLine {
		if _, err := s.proc.WriteStdinContext(exCtx, []byte(asLine(request))); err != nil {
			if exCtx.Err() != nil {
				return s.escalate(exCtx, log, id, start, nil, nil), nil
			}

			log.Error("Failed to write request", "error", err)

			return Outcome{}, err
		}
	}

	var stdout syncBuffer

	collected := s.collect(exCtx, log, &stdout, request)

	select {
	case readErr := <-collected:
		return s.complete(exCtx, log, id, start, &stdout, readErr)

	case <-exCtx.Done():
		return s.escalate(exCtx, log, id, start, &stdout, collected), nil
	}
}

// asLine newline-terminates request.
func asLine(request string) string {
	if strings.HasSuffix(request, "\n") {
		return request
	}

	return request + "\n"
}

// collect starts the reply readers and returns a channel that yields the
// first read error (or nil) once the reply boundary has been reached.
//
// In exit mode the request is fed to stdin alongside the readers, so a
// child that echoes while it reads never fills its stdout pipe against a
// blocked writer.
func (s *Session) collect(ctx context.Context, log *slog.Logger, stdout *syncBuffer, request string) <-chan error {
	var g errgroup.Group

	switch s.opts.boundary {
	case BoundaryLine:
		g.Go(func() error {
			line, err := s.stdout.ReadString('\n')
			_, _ = stdout.WriteString(line)

			return err
		})

	default:
		g.Go(func() error {
			_, err := io.Copy(stdout, s.stdout)

			return err
		})

		g.Go(func() error {
			<-s.stderrDone

			return nil
		})

		g.Go(func() error {
			s.feed(ctx, log, request)

			return nil
		})
	}

	collected := make(chan error, 1)

	go func() {
		collected <- g.Wait()
	}()

	return collected
}

// feed writes an exit-mode request and then closes stdin if configured.
// Write failures are not fatal: a child that exited without reading its
// input may still have output worth collecting.
func (s *Session) feed(ctx context.Context, log *slog.Logger, request string) {
	if request != "" {
		if _, err := s.proc.WriteStdinContext(ctx, []byte(asLine(request))); err != nil {
			if ctx.Err() != nil {
				return
			}

			log.Debug("Request not delivered, collecting output anyway", "error", err)
		}
	}

	if s.opts.closeStdin {
		if err := s.proc.CloseStdin(); err != nil {
			log.Debug("Closing stdin failed", "error", err)
		}
	}
}

// complete builds the outcome for an exchange whose reply boundary was
// reached. The child may still need to be waited for.
func (s *Session) complete(
	exCtx context.Context,
	log *slog.Logger,
	id string,
	start time.Time,
	stdout *syncBuffer,
	readErr error,
) (Outcome, error) {
	outcome := Outcome{
		ID:     id,
		Status: StatusCompleted,
	}

	childDone := s.opts.boundary == BoundaryExit

	if readErr != nil {
		// In line mode the child closed stdout before a full reply.
		log.Debug("Child output ended", "error", readErr)

		childDone = true
	}

	if childDone {
		// Nothing more can be exchanged with a child whose output ended.
		s.closed = true

		status, err := s.proc.Wait(exCtx)
		if err != nil {
			// Streams closed but the child lingers past the deadline.
			return s.escalate(exCtx, log, id, start, stdout, nil), nil
		}

		outcome.Exit = &status
	} else if status, exited := s.proc.Poll(); exited {
		outcome.Exit = &status
	}

	outcome.Stdout = stdout.String()
	outcome.Stderr = s.takeStderr()
	outcome.Duration = time.Since(start)

	log.Debug("Exchange completed", "duration", outcome.Duration, "stdout_len", len(outcome.Stdout))

	return outcome, nil
}

// escalate stops the child after a deadline or cancellation and reaps it.
// collected, when non-nil, is drained so partial output is complete.
func (s *Session) escalate(
	exCtx context.Context,
	log *slog.Logger,
	id string,
	start time.Time,
	stdout *syncBuffer,
	collected <-chan error,
) Outcome {
	status := StatusTimedOut
	if !stderrors.Is(exCtx.Err(), context.DeadlineExceeded) {
		status = StatusCancelled
	}

	log.Warn("Exchange interrupted, terminating child",
		"status", status.String(),
		"pid", s.proc.Pid(),
		"elapsed", time.Since(start),
	)

	s.closed = true

	escalated := time.Now()

	exit, killed := s.terminate(log)

	if collected != nil {
		// Draining shares the grace budget with the terminate wait.
		drain := max(s.opts.gracePeriod-time.Since(escalated), minDrain)

		select {
		case <-collected:
		case <-time.After(drain):
			log.Debug("Output still open after reap, closing pipes")
			s.proc.Release()
			<-collected
		}
	}

	outcome := Outcome{
		ID:         id,
		Status:     status,
		Exit:       &exit,
		Terminated: true,
		Killed:     killed,
	}

	if s.opts.preservePartial {
		if stdout != nil {
			outcome.Stdout = stdout.String()
		}

		outcome.Stderr = s.takeStderr()
	}

	outcome.Duration = time.Since(start)

	log.Info("Exchange ended by termination",
		"status", status.String(),
		"exit", exit.String(),
		"killed", killed,
		"duration", outcome.Duration,
	)

	return outcome
}

// terminate runs the terminate → grace wait → kill → wait sequence and
// returns the reaped exit status and whether a kill was needed.
func (s *Session) terminate(log *slog.Logger) (subprocess.ExitStatus, bool) {
	return Terminate(log, s.proc, s.opts.gracePeriod)
}

// Terminate stops proc: it requests a graceful exit, waits up to grace,
// then kills and waits without limit. It returns the exit status and
// whether the kill was needed. A non-positive grace kills immediately.
func Terminate(log *slog.Logger, proc *subprocess.Process, grace time.Duration) (subprocess.ExitStatus, bool) {
	if status, exited := proc.Poll(); exited {
		return status, false
	}

	if grace > 0 {
		if err := proc.Terminate(); err != nil {
			log.Debug("Terminate failed", "error", err)
		}

		status, err := proc.WaitTimeout(grace)
		if err == nil {
			return status, false
		}

		log.Warn("Child ignored terminate, killing", "pid", proc.Pid(), "grace_period", grace)
	}

	if err := proc.Kill(); err != nil {
		log.Debug("Kill failed", "error", err)
	}

	// Unconditional: the kill cannot be ignored.
	status, _ := proc.Wait(context.Background())

	return status, true
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) WriteString(s string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.WriteString(s)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
