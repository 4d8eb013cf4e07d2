package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ProcSupError is the base interface for all supervisor errors.
type ProcSupError interface {
	error
	IsProcSupError() bool
}

// Compile-time verification that all error types implement ProcSupError.
var (
	_ ProcSupError = (*SpawnError)(nil)
	_ ProcSupError = (*BrokenPipeError)(nil)
	_ ProcSupError = (*WaitTimeoutError)(nil)
	_ ProcSupError = (*ConnectionRefusedError)(nil)
	_ ProcSupError = (*ConnectTimeoutError)(nil)
	_ ProcSupError = (*ProtocolError)(nil)
	_ ProcSupError = (*ExitError)(nil)
	_ ProcSupError = (*TimeoutError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrExecutableNotFound indicates argv[0] could not be resolved to a file.
	ErrExecutableNotFound = errors.New("executable not found")

	// ErrEmptyCommand indicates an empty argument vector was supplied.
	ErrEmptyCommand = errors.New("empty command")

	// ErrBrokenPipe indicates a write to a child whose input is gone.
	ErrBrokenPipe = errors.New("broken pipe")

	// ErrProcessReaped indicates the process has already been waited for.
	ErrProcessReaped = errors.New("process already reaped")

	// ErrSessionClosed indicates the pipe session reached a terminal
	// escalation and cannot carry further exchanges.
	ErrSessionClosed = errors.New("session closed")

	// ErrConnectionRefused indicates no listener was present at the address.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrConnectTimeout indicates the connect timeout elapsed.
	ErrConnectTimeout = errors.New("connect timeout")

	// ErrEmptyReply indicates the peer closed the connection without replying.
	ErrEmptyReply = errors.New("empty reply")

	// ErrNoSocketAddress indicates a socket exchange was requested on a child
	// that has no configured address.
	ErrNoSocketAddress = errors.New("no socket address configured")

	// ErrChildClosed indicates the child has been shut down and cannot be reused.
	ErrChildClosed = errors.New("child closed")

	// ErrSupervisorClosed indicates the supervisor was shut down and starts
	// no further children.
	ErrSupervisorClosed = errors.New("supervisor closed")
)

// SpawnError indicates the child process could not be created.
type SpawnError struct {
	Argv          []string
	SearchedPaths []string
	Err           error
}

func (e *SpawnError) Error() string {
	name := ""
	if len(e.Argv) > 0 {
		name = e.Argv[0]
	}

	if len(e.SearchedPaths) > 0 {
		return fmt.Sprintf("spawn %q: %v (searched: %s)", name, e.Err, strings.Join(e.SearchedPaths, ", "))
	}

	return fmt.Sprintf("spawn %q: %v", name, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsProcSupError implements ProcSupError.
func (e *SpawnError) IsProcSupError() bool { return true }

// BrokenPipeError indicates a write to the child's stdin failed because the
// child closed its input or exited.
type BrokenPipeError struct {
	Pid int
	Err error
}

func (e *BrokenPipeError) Error() string {
	return fmt.Sprintf("write to stdin of pid %d: %v", e.Pid, e.Err)
}

// Unwrap returns both the cause and ErrBrokenPipe so errors.Is matches either.
func (e *BrokenPipeError) Unwrap() []error {
	return []error{ErrBrokenPipe, e.Err}
}

// IsProcSupError implements ProcSupError.
func (e *BrokenPipeError) IsProcSupError() bool { return true }

// WaitTimeoutError indicates a bounded wait expired while the process was
// still alive. The process is neither signalled nor reaped.
type WaitTimeoutError struct {
	Pid     int
	Timeout time.Duration
	Err     error
}

func (e *WaitTimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("pid %d still running after %s", e.Pid, e.Timeout)
	}

	return fmt.Sprintf("pid %d still running: %v", e.Pid, e.Err)
}

func (e *WaitTimeoutError) Unwrap() error {
	return e.Err
}

// IsProcSupError implements ProcSupError.
func (e *WaitTimeoutError) IsProcSupError() bool { return true }

// ConnectionRefusedError indicates that nothing is listening at Addr.
type ConnectionRefusedError struct {
	Addr string
	Err  error
}

func (e *ConnectionRefusedError) Error() string {
	return fmt.Sprintf("connect %s: connection refused", e.Addr)
}

// Unwrap returns both the cause and ErrConnectionRefused.
func (e *ConnectionRefusedError) Unwrap() []error {
	return []error{ErrConnectionRefused, e.Err}
}

// IsProcSupError implements ProcSupError.
func (e *ConnectionRefusedError) IsProcSupError() bool { return true }

// ConnectTimeoutError indicates the connection attempt to Addr did not
// complete within Timeout.
type ConnectTimeoutError struct {
	Addr    string
	Timeout time.Duration
	Err     error
}

func (e *ConnectTimeoutError) Error() string {
	return fmt.Sprintf("connect %s: timed out after %s", e.Addr, e.Timeout)
}

// Unwrap returns both the cause and ErrConnectTimeout.
func (e *ConnectTimeoutError) Unwrap() []error {
	return []error{ErrConnectTimeout, e.Err}
}

// IsProcSupError implements ProcSupError.
func (e *ConnectTimeoutError) IsProcSupError() bool { return true }

// ProtocolError indicates the connection was established but the
// line exchange itself failed.
type ProtocolError struct {
	Addr string
	Op   string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProcSupError implements ProcSupError.
func (e *ProtocolError) IsProcSupError() bool { return true }

// ExitError indicates a one-shot run finished with a non-zero exit code.
type ExitError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// IsProcSupError implements ProcSupError.
func (e *ExitError) IsProcSupError() bool { return true }

// TimeoutError indicates a one-shot run hit its deadline. Unlike
// WaitTimeoutError, the child has been terminated and reaped.
type TimeoutError struct {
	Pid     int
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("pid %d timed out after %s", e.Pid, e.Timeout)
	}

	return fmt.Sprintf("pid %d timed out: %v", e.Pid, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsProcSupError implements ProcSupError.
func (e *TimeoutError) IsProcSupError() bool { return true }
