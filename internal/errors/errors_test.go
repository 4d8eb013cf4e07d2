package errors

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpawnError(t *testing.T) {
	err := &SpawnError{
		Argv:          []string{"missing-tool", "--flag"},
		SearchedPaths: []string{"$PATH", "/usr/local/bin/missing-tool"},
		Err:           ErrExecutableNotFound,
	}

	require.Equal(
		t,
		`spawn "missing-tool": executable not found (searched: $PATH, /usr/local/bin/missing-tool)`,
		err.Error(),
	)
	require.ErrorIs(t, err, ErrExecutableNotFound)
	require.True(t, err.IsProcSupError())
}

func TestSpawnError_WithoutSearchedPaths(t *testing.T) {
	root := errors.New("permission denied")
	err := &SpawnError{Argv: []string{"/bin/locked"}, Err: root}

	require.Equal(t, `spawn "/bin/locked": permission denied`, err.Error())
	require.ErrorIs(t, err, root)
}

func TestBrokenPipeError(t *testing.T) {
	err := &BrokenPipeError{Pid: 42, Err: syscall.EPIPE}

	require.Equal(t, "write to stdin of pid 42: broken pipe", err.Error())
	require.ErrorIs(t, err, ErrBrokenPipe)
	require.ErrorIs(t, err, syscall.EPIPE)
	require.True(t, err.IsProcSupError())
}

func TestWaitTimeoutError(t *testing.T) {
	err := &WaitTimeoutError{Pid: 7, Timeout: 5 * time.Second}

	require.Equal(t, "pid 7 still running after 5s", err.Error())
	require.NoError(t, err.Unwrap())
	require.True(t, err.IsProcSupError())
}

func TestConnectionRefusedError(t *testing.T) {
	err := &ConnectionRefusedError{Addr: "localhost:12345", Err: syscall.ECONNREFUSED}

	require.Equal(t, "connect localhost:12345: connection refused", err.Error())
	require.ErrorIs(t, err, ErrConnectionRefused)
	require.ErrorIs(t, err, syscall.ECONNREFUSED)
	require.NotErrorIs(t, err, ErrConnectTimeout)

	typed, ok := errors.AsType[*ConnectionRefusedError](err)
	require.True(t, ok)
	require.Equal(t, "localhost:12345", typed.Addr)
}

func TestConnectTimeoutError(t *testing.T) {
	err := &ConnectTimeoutError{Addr: "10.0.0.1:80", Timeout: 100 * time.Millisecond}

	require.Equal(t, "connect 10.0.0.1:80: timed out after 100ms", err.Error())
	require.ErrorIs(t, err, ErrConnectTimeout)
	require.NotErrorIs(t, err, ErrConnectionRefused)
	require.True(t, err.IsProcSupError())
}

func TestProtocolError(t *testing.T) {
	err := &ProtocolError{Addr: "localhost:9000", Op: "read", Err: ErrEmptyReply}

	require.Equal(t, "read localhost:9000: empty reply", err.Error())
	require.ErrorIs(t, err, ErrEmptyReply)
	require.NotErrorIs(t, err, ErrConnectionRefused)
}

func TestExitError_WithUnderlyingError(t *testing.T) {
	root := errors.New("exit status 9")
	err := &ExitError{ExitCode: 9, Stderr: "ignored when Err is set", Err: root}

	require.Equal(t, "process failed (exit 9): exit status 9", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsProcSupError())
}

func TestExitError_WithStderrOnly(t *testing.T) {
	err := &ExitError{ExitCode: 2, Stderr: "permission denied"}

	require.Equal(t, "process failed (exit 2): permission denied", err.Error())
	require.NoError(t, err.Unwrap())
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{Pid: 9, Timeout: 2 * time.Second, Err: context.DeadlineExceeded}

	require.Equal(t, "pid 9 timed out after 2s", err.Error())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.True(t, err.IsProcSupError())

	err = &TimeoutError{Pid: 9, Err: context.DeadlineExceeded}
	require.Equal(t, "pid 9 timed out: context deadline exceeded", err.Error())
}
