package procsup

import "github.com/wagiedev/procsup-go/internal/errors"

// Re-export error types from internal package

// SpawnError indicates a child process could not be started.
type SpawnError = errors.SpawnError

// BrokenPipeError indicates a write to a child that no longer reads its input.
type BrokenPipeError = errors.BrokenPipeError

// WaitTimeoutError indicates a wait for process exit gave up first.
type WaitTimeoutError = errors.WaitTimeoutError

// ConnectionRefusedError indicates nothing listened at a socket address.
type ConnectionRefusedError = errors.ConnectionRefusedError

// ConnectTimeoutError indicates a socket connect did not complete in time.
type ConnectTimeoutError = errors.ConnectTimeoutError

// ProtocolError indicates a socket exchange failed after connecting.
type ProtocolError = errors.ProtocolError

// TimeoutError indicates Run hit its deadline; the child was terminated.
type TimeoutError = errors.TimeoutError

// ExitError indicates a one-shot run exited with a non-zero code.
type ExitError = errors.ExitError

// ProcSupError is the base interface for all supervisor errors.
type ProcSupError = errors.ProcSupError

// Re-export sentinel errors from internal package.
var (
	// ErrExecutableNotFound indicates argv[0] could not be resolved.
	ErrExecutableNotFound = errors.ErrExecutableNotFound

	// ErrEmptyCommand indicates an empty argument vector.
	ErrEmptyCommand = errors.ErrEmptyCommand

	// ErrBrokenPipe matches every BrokenPipeError.
	ErrBrokenPipe = errors.ErrBrokenPipe

	// ErrSessionClosed indicates the pipe session can carry no further exchanges.
	ErrSessionClosed = errors.ErrSessionClosed

	// ErrConnectionRefused matches every ConnectionRefusedError.
	ErrConnectionRefused = errors.ErrConnectionRefused

	// ErrConnectTimeout matches every ConnectTimeoutError.
	ErrConnectTimeout = errors.ErrConnectTimeout

	// ErrEmptyReply indicates the peer closed the connection without replying.
	ErrEmptyReply = errors.ErrEmptyReply

	// ErrNoSocketAddress indicates Send was called on a child with no socket address.
	ErrNoSocketAddress = errors.ErrNoSocketAddress

	// ErrChildClosed indicates the child has been shut down and cannot be reused.
	ErrChildClosed = errors.ErrChildClosed

	// ErrSupervisorClosed indicates Start was called after Shutdown.
	ErrSupervisorClosed = errors.ErrSupervisorClosed
)
