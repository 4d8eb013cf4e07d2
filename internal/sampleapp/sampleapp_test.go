package sampleapp

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/procsup-go/internal/socket"
)

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	code := Main(args, IO{In: strings.NewReader(stdin), Out: &stdout, Err: &stderr})

	return code, stdout.String(), stderr.String()
}

func TestSayHi(t *testing.T) {
	code, stdout, stderr := run(t, "", "say-hi")

	require.Equal(t, 0, code)
	require.Equal(t, "Hi!\n", stdout)
	require.Empty(t, stderr)
}

func TestError(t *testing.T) {
	code, stdout, stderr := run(t, "", "error")

	require.Equal(t, 1, code)
	require.Empty(t, stdout)
	require.Equal(t, "Something went wrong!\n", stderr)

	code, _, _ = run(t, "", "error", "--code", "7")
	require.Equal(t, 7, code)
}

func TestPrintEnv_Filtered(t *testing.T) {
	t.Setenv("MY_VAR", "123")
	t.Setenv("YOUR_VAR", "456")

	code, stdout, _ := run(t, "", "print-env", "--name", "MY_VAR", "--name", "YOUR_VAR")

	require.Equal(t, 0, code)
	require.Equal(t, "MY_VAR=123\nYOUR_VAR=456\n", stdout)
}

func TestInteract(t *testing.T) {
	t.Run("exit", func(t *testing.T) {
		code, stdout, _ := run(t, "exit\n", "interact")

		require.Equal(t, 0, code)
		require.Equal(t, "Exiting.\n", stdout)
	})

	t.Run("work then eof", func(t *testing.T) {
		code, stdout, _ := run(t, "work", "interact")

		require.Equal(t, 0, code)
		require.Equal(t, "Working...\nDone.\n", stdout)
	})

	t.Run("error", func(t *testing.T) {
		code, _, stderr := run(t, "error\n", "interact")

		require.Equal(t, 1, code)
		require.Contains(t, stderr, "cannot do that")
	})

	t.Run("unknown", func(t *testing.T) {
		code, stdout, _ := run(t, "do something impossible\nexit\n", "interact")

		require.Equal(t, 0, code)
		require.Equal(t, "Unknown command: do something impossible\nExiting.\n", stdout)
	})
}

func TestEchoOnce(t *testing.T) {
	code, stdout, _ := run(t, "ping\npong\n", "echo-once")

	require.Equal(t, 0, code)
	require.Equal(t, "ping\n", stdout)
}

func TestEcho(t *testing.T) {
	code, stdout, stderr := run(t, "a\nb\n", "echo", "--stderr-prefix", "err:")

	require.Equal(t, 0, code)
	require.Equal(t, "a\nb\n", stdout)
	require.Equal(t, "err:a\nerr:b\n", stderr)
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := run(t, "", "no-such-command")

	require.Equal(t, 2, code)
	require.Contains(t, stderr, "unknown command")
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	var stdout, stderr bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		cmd := NewCommand(IO{In: strings.NewReader(""), Out: &stdout, Err: &stderr})
		cmd.SetArgs([]string{"serve", "--host", "127.0.0.1", "--port", strconv.Itoa(port)})
		done <- cmd.ExecuteContext(ctx)
	}()

	var reply string

	require.Eventually(t, func() bool {
		reply, err = socket.Send(ctx, "127.0.0.1", port, "Hello, world!")

		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	require.Equal(t, "Received: Hello, world!\n", reply)

	cancel()
	require.NoError(t, <-done)
}

func TestFlood(t *testing.T) {
	code, stdout, stderr := run(t, "", "flood", "--stderr-bytes", "1000", "--message", "fin")

	require.Equal(t, 0, code)
	require.Equal(t, "fin\n", stdout)
	require.Len(t, stderr, 1000)
}
