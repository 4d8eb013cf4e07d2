package subprocess

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/procsup-go/internal/command"
	"github.com/wagiedev/procsup-go/internal/errors"
)

// State represents the lifecycle state of a process.
type State int32

const (
	// StateRunning indicates the process has been started and not yet reaped.
	StateRunning State = iota
	// StateExited indicates the process exited on its own and was reaped.
	StateExited
	// StateKilled indicates the process was ended by a signal and was reaped.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// ExitStatus describes how a reaped process ended.
type ExitStatus struct {
	// Code is the raw exit code, or -1 when the process died from a signal.
	Code int

	// Signaled reports whether the process was ended by a signal.
	Signaled bool

	// Signal names the terminating signal when Signaled is true.
	Signal string
}

// Success reports whether the process exited with code 0.
func (s ExitStatus) Success() bool {
	return !s.Signaled && s.Code == 0
}

func (s ExitStatus) String() string {
	if s.Signaled {
		return "signal: " + s.Signal
	}

	return fmt.Sprintf("exit status %d", s.Code)
}

// Process is a spawned child with piped standard streams.
//
// Stdin writes are serialised; stdout and stderr may be read from separate
// goroutines. All methods are safe for concurrent use.
type Process struct {
	log  *slog.Logger
	id   string
	argv []string
	cmd  *exec.Cmd

	stdin  io.WriteCloser
	stdout *os.File
	stderr *os.File

	mu          sync.Mutex // Protects stdin writes
	stdinClosed bool

	started time.Time
	state   atomic.Int32
	done    chan struct{}
	status  ExitStatus
	waitErr error

	releaseOnce sync.Once
}

// Spawn starts the child described by spec with stdin, stdout, and stderr
// connected to pipes owned by the returned Process.
//
// argv[0] is resolved with command.Discoverer; an unresolvable name or a
// failure of the OS to create the process yields *errors.SpawnError.
func Spawn(ctx context.Context, log *slog.Logger, spec command.Spec) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(spec.Argv) == 0 {
		return nil, &errors.SpawnError{Err: errors.ErrEmptyCommand}
	}

	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	id := ulid.Make().String()
	log = log.With("component", "subprocess", "process_id", id)

	path, err := command.NewDiscoverer(&command.Config{
		SearchPaths: spec.SearchPaths,
		Logger:      log,
	}).Discover(spec.Name())
	if err != nil {
		if spawnErr, ok := stderrors.AsType[*errors.SpawnError](err); ok {
			spawnErr.Argv = spec.Argv
		}

		return nil, err
	}

	//nolint:gosec // G204: spawning caller-supplied commands is the purpose of this package
	cmd := exec.Command(path, spec.Argv[1:]...)
	cmd.Args[0] = spec.Argv[0]
	cmd.Dir = spec.Dir
	cmd.Env = command.BuildEnvironment(spec.Env)
	configureProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &errors.SpawnError{Argv: spec.Argv, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	// Raw os.Pipe pairs are handed to the child directly, so exec.Cmd runs
	// no copy goroutines and Wait never touches our read ends.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()

		return nil, &errors.SpawnError{Argv: spec.Argv, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		closeAll(stdoutR, stdoutW)

		return nil, &errors.SpawnError{Argv: spec.Argv, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	log.Debug("Starting child process", "path", path, "args", spec.Argv[1:], "cwd", spec.Dir)

	startErr := cmd.Start()

	// The child holds its own copies of the write ends.
	closeAll(stdoutW, stderrW)

	if startErr != nil {
		_ = stdin.Close()
		closeAll(stdoutR, stderrR)

		log.Error("Failed to start child process", "error", startErr)

		return nil, &errors.SpawnError{Argv: spec.Argv, Err: startErr}
	}

	p := &Process{
		log:     log,
		id:      id,
		argv:    append([]string(nil), spec.Argv...),
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdoutR,
		stderr:  stderrR,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	p.state.Store(int32(StateRunning))

	go p.waitLoop()

	log.Info("Child process started", "pid", cmd.Process.Pid)

	return p, nil
}

// waitLoop reaps the child exactly once and publishes its exit status.
func (p *Process) waitLoop() {
	err := p.cmd.Wait()

	status := ExitStatus{Code: -1}
	state := StateExited

	if ps := p.cmd.ProcessState; ps != nil {
		status.Code = ps.ExitCode()

		if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			status.Signaled = true
			status.Signal = ws.Signal().String()
			state = StateKilled
		}
	}

	// A non-zero exit is reported through status, not as a wait failure.
	if _, ok := stderrors.AsType[*exec.ExitError](err); ok {
		err = nil
	}

	p.status = status
	p.waitErr = err
	p.state.Store(int32(state))
	close(p.done)

	p.log.Info("Child process reaped", "pid", p.Pid(), "status", status.String(), "runtime", time.Since(p.started))
}

// ID returns the unique identifier assigned at spawn time.
func (p *Process) ID() string {
	return p.id
}

// Pid returns the operating-system process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Argv returns a copy of the argument vector.
func (p *Process) Argv() []string {
	return append([]string(nil), p.argv...)
}

// State returns the current lifecycle state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// Done returns a channel that is closed once the process has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Stdout returns the read end of the child's standard output.
// Reads return io.EOF once every holder of the write end has closed it.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Stderr returns the read end of the child's standard error.
func (p *Process) Stderr() io.Reader {
	return p.stderr
}

// ReadStdout reads from the child's standard output.
func (p *Process) ReadStdout(b []byte) (int, error) {
	return p.stdout.Read(b)
}

// ReadStderr reads from the child's standard error.
func (p *Process) ReadStderr(b []byte) (int, error) {
	return p.stderr.Read(b)
}

// WriteStdin writes b to the child's standard input.
//
// Returns *errors.BrokenPipeError if stdin was closed, the child stopped
// reading, or the process has been reaped.
func (p *Process) WriteStdin(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.writeLocked(b)
}

// WriteStdinContext writes b like WriteStdin but gives up when ctx is done.
//
// A write blocked on a full pipe is abandoned by closing stdin, after which
// the child sees end-of-input and further writes fail.
func (p *Process) WriteStdinContext(ctx context.Context, b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := p.checkWritableLocked(); err != nil {
		return 0, err
	}

	type result struct {
		n   int
		err error
	}

	done := make(chan result, 1)

	// Write in goroutine to respect context cancellation
	go func() {
		n, err := p.stdin.Write(b)
		done <- result{n: n, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			p.log.Debug("Write to stdin failed", "error", r.err)

			return r.n, &errors.BrokenPipeError{Pid: p.Pid(), Err: r.err}
		}

		return r.n, nil

	case <-ctx.Done():
		p.log.Debug("Context cancelled during write, closing stdin")

		// Close stdin to unblock the blocked Write (safe since Go 1.9+)
		_ = p.stdin.Close()
		p.stdinClosed = true

		select {
		case <-done:
		case <-time.After(time.Second):
			p.log.Warn("Write goroutine did not exit after stdin close, potential leak")
		}

		return 0, ctx.Err()
	}
}

// checkWritableLocked rejects writes to a closed stdin or a reaped
// process. Caller must hold p.mu.
func (p *Process) checkWritableLocked() error {
	select {
	case <-p.done:
		return &errors.BrokenPipeError{Pid: p.Pid(), Err: errors.ErrProcessReaped}
	default:
	}

	if p.stdinClosed {
		return &errors.BrokenPipeError{Pid: p.Pid(), Err: os.ErrClosed}
	}

	return nil
}

// writeLocked performs the write. Caller must hold p.mu.
func (p *Process) writeLocked(b []byte) (int, error) {
	if err := p.checkWritableLocked(); err != nil {
		return 0, err
	}

	n, err := p.stdin.Write(b)
	if err != nil {
		p.log.Debug("Write to stdin failed", "error", err)

		return n, &errors.BrokenPipeError{Pid: p.Pid(), Err: err}
	}

	return n, nil
}

// CloseStdin half-closes the child's standard input, signalling that no
// more requests follow. The process keeps running. Safe to call repeatedly.
func (p *Process) CloseStdin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stdinClosed {
		return nil
	}

	p.log.Debug("Closing stdin pipe")

	p.stdinClosed = true

	if err := p.stdin.Close(); err != nil && !stderrors.Is(err, os.ErrClosed) {
		return err
	}

	return nil
}

// Terminate asks the process to exit (SIGTERM on Unix). It does not block.
// Signalling a process that already exited is not an error.
func (p *Process) Terminate() error {
	return p.signal(syscall.SIGTERM)
}

// Kill forces the process to exit immediately. It does not block.
// Killing a process that already exited is not an error.
func (p *Process) Kill() error {
	return p.signal(os.Kill)
}

func (p *Process) signal(sig os.Signal) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	p.log.Debug("Signalling child process", "pid", p.Pid(), "signal", sig.String())

	if err := signalProcess(p.cmd.Process, sig); err != nil {
		return fmt.Errorf("signal %s to pid %d: %w", sig, p.Pid(), err)
	}

	return nil
}

// Wait blocks until the process has been reaped or ctx is done.
//
// When ctx ends first, *errors.WaitTimeoutError is returned and the process
// is left running and un-reaped.
func (p *Process) Wait(ctx context.Context) (ExitStatus, error) {
	select {
	case <-p.done:
		return p.status, p.waitErr
	default:
	}

	select {
	case <-p.done:
		return p.status, p.waitErr
	case <-ctx.Done():
		return ExitStatus{}, &errors.WaitTimeoutError{Pid: p.Pid(), Err: ctx.Err()}
	}
}

// WaitTimeout is Wait with a relative deadline. A non-positive timeout
// blocks indefinitely.
func (p *Process) WaitTimeout(timeout time.Duration) (ExitStatus, error) {
	if timeout <= 0 {
		return p.Wait(context.Background())
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return p.status, p.waitErr
	case <-timer.C:
		return ExitStatus{}, &errors.WaitTimeoutError{Pid: p.Pid(), Timeout: timeout, Err: context.DeadlineExceeded}
	}
}

// Poll returns the exit status without blocking. The boolean is false
// while the process is still running.
func (p *Process) Poll() (ExitStatus, bool) {
	select {
	case <-p.done:
		return p.status, true
	default:
		return ExitStatus{}, false
	}
}

// Release closes the parent's ends of all three pipes. Readers blocked on
// stdout or stderr return immediately. Call it only after the process has
// been reaped and output collection is finished or abandoned.
func (p *Process) Release() {
	p.releaseOnce.Do(func() {
		_ = p.CloseStdin()
		closeAll(p.stdout, p.stderr)
	})
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
