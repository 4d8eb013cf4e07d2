package cmd

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/procsup-go/internal/sampleapp"
	"github.com/wagiedev/procsup-go/internal/socket"
)

func TestMain(m *testing.M) {
	sampleapp.RunIfHelper()
	os.Exit(m.Run())
}

// execute runs procsup with args in an isolated config environment.
func execute(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer

	code := Main(args, IO{In: strings.NewReader(stdin), Out: &stdout, Err: &stderr})

	return code, stdout.String(), stderr.String()
}

// helperArgs prefixes args with the flags and separator that start this
// test binary as sampleapp.
func helperArgs(t *testing.T, flags []string, args ...string) []string {
	t.Helper()

	exe, err := os.Executable()
	require.NoError(t, err)

	out := append([]string{}, flags...)
	out = append(out, "--env", sampleapp.EnvHelper+"=1", "--", exe)

	return append(out, args...)
}

func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	return port
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand(IO{})

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"run", "exchange", "send", "serve"} {
		require.Contains(t, names, want)
	}
}

func TestRun_SayHi(t *testing.T) {
	code, stdout, _ := execute(t, "", helperArgs(t, []string{"run"}, "say-hi")...)

	require.Equal(t, 0, code)
	require.Equal(t, "Hi!\n", stdout)
}

func TestRun_InputFromStdin(t *testing.T) {
	code, stdout, _ := execute(t, "one\ntwo\n", helperArgs(t, []string{"run", "--input", "-"}, "echo")...)

	require.Equal(t, 0, code)
	require.Equal(t, "one\ntwo\n", stdout)
}

func TestRun_PropagatesExitCode(t *testing.T) {
	code, _, stderr := execute(t, "", helperArgs(t, []string{"run"}, "error", "--code", "3")...)

	require.Equal(t, 3, code)
	require.Contains(t, stderr, "Something went wrong!")
}

func TestRun_Timeout(t *testing.T) {
	code, stdout, _ := execute(t, "",
		helperArgs(t, []string{"run", "--timeout", "300ms"}, "sleep-forever", "--partial", "half")...)

	require.Equal(t, exitTimedOut, code)
	require.Equal(t, "half", stdout)
}

func TestRun_ExecutableNotFound(t *testing.T) {
	code, _, stderr := execute(t, "", "run", "--", "procsup-definitely-missing-tool")

	require.Equal(t, exitFailure, code)
	require.Contains(t, stderr, "executable not found")
}

func TestExchange_LineMode(t *testing.T) {
	code, stdout, stderr := execute(t, "", helperArgs(t,
		[]string{"exchange", "--boundary", "line", "--timeout", "5s", "-r", "first", "-r", "second"},
		"echo")...)

	require.Equal(t, 0, code)
	require.Equal(t, "first\nsecond\n", stdout)
	require.Equal(t, 2, strings.Count(stderr, "completed, running"))
}

func TestExchange_TimeoutKillsChild(t *testing.T) {
	code, _, stderr := execute(t, "", helperArgs(t,
		[]string{"exchange", "--timeout", "200ms", "--grace-period", "200ms", "-r", "x"},
		"sleep-forever")...)

	require.Equal(t, exitTimedOut, code)
	require.Contains(t, stderr, "timed_out")
}

func TestSend(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- socket.Serve(ctx, nil, ln, func(line string) string {
			return "Received: " + line
		})
	}()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)

	code, stdout, _ := execute(t, "", "send", "--host", "127.0.0.1", "--port", port, "Hello,", "world!")

	require.Equal(t, 0, code)
	require.Equal(t, "Received: Hello, world!\n", stdout)
}

func TestSend_ConnectionRefused(t *testing.T) {
	port := strconv.Itoa(freePort(t))

	code, _, stderr := execute(t, "", "send", "--host", "127.0.0.1", "--port", port, "hi")

	require.Equal(t, exitFailure, code)
	require.Contains(t, stderr, "connection refused")
}

func TestServe_Walkthrough(t *testing.T) {
	port := strconv.Itoa(freePort(t))

	code, stdout, stderr := execute(t, "", helperArgs(t,
		[]string{"serve", "--host", "127.0.0.1", "--port", port, "--grace-period", "200ms"},
		"serve", "--host", "127.0.0.1", "--port", port)...)

	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "Received: Hello, world!\n")
	require.Contains(t, stdout, "Received: Are you running?\n")
	require.Contains(t, stdout, "Server stopped: connection refused\n")
}

func TestConfigFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procsup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exchange:\n  boundary: packet\n"), 0o600))

	code, _, stderr := execute(t, "", helperArgs(t, []string{"--config", path, "run"}, "say-hi")...)

	require.Equal(t, exitFailure, code)
	require.Contains(t, stderr, "exchange.boundary")
}

func TestConfigFile_TimeoutFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procsup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exchange:\n  timeout: 200ms\n  grace_period: 200ms\n"), 0o600))

	code, _, _ := execute(t, "", helperArgs(t, []string{"--config", path, "run"}, "sleep-forever")...)

	require.Equal(t, exitTimedOut, code)
}
