package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/procsup-go/internal/session"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestDefault(t *testing.T) {
	s := Default()

	require.Equal(t, session.DefaultGracePeriod, s.Exchange.GracePeriod)
	require.Equal(t, "exit", s.Exchange.Boundary)
	require.True(t, s.Exchange.CloseStdin)
	require.True(t, s.Exchange.PreservePartial)
	require.Zero(t, s.Exchange.Timeout)
	require.Equal(t, "localhost", s.Socket.Host)
	require.Equal(t, 12345, s.Socket.Port)
	require.Empty(t, s.Validate())
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	s, err := Load(NewViper(""))
	require.NoError(t, err)
	require.Equal(t, Default().Exchange, s.Exchange)
	require.Equal(t, Default().Socket, s.Socket)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
exchange:
  timeout: 2s
  grace_period: 500ms
  boundary: line
  preserve_partial: false
process:
  search_paths: [/opt/bin, /usr/local/sbin]
  env: [GREETING=hello, EMPTY=]
socket:
  port: 9000
  read_timeout: 1s
logging:
  level: debug
`)

	s, err := Load(NewViper(path))
	require.NoError(t, err)

	require.Equal(t, 2*time.Second, s.Exchange.Timeout)
	require.Equal(t, 500*time.Millisecond, s.Exchange.GracePeriod)
	require.Equal(t, "line", s.Exchange.Boundary)
	require.False(t, s.Exchange.PreservePartial)
	require.True(t, s.Exchange.CloseStdin)
	require.Equal(t, []string{"/opt/bin", "/usr/local/sbin"}, s.Process.SearchPaths)
	require.Equal(t, map[string]string{"GREETING": "hello", "EMPTY": ""}, s.Process.EnvMap())
	require.Equal(t, 9000, s.Socket.Port)
	require.Equal(t, "localhost", s.Socket.Host)
	require.Equal(t, time.Second, s.Socket.ReadTimeout)
	require.Equal(t, slog.LevelDebug, s.LogLevel())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "exchange:\n  timeout: 2s\n")

	t.Setenv("PROCSUP_EXCHANGE_TIMEOUT", "750ms")
	t.Setenv("PROCSUP_SOCKET_PORT", "4242")

	s, err := Load(NewViper(path))
	require.NoError(t, err)
	require.Equal(t, 750*time.Millisecond, s.Exchange.Timeout)
	require.Equal(t, 4242, s.Socket.Port)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(NewViper(filepath.Join(t.TempDir(), "absent.yaml")))
	require.Error(t, err)
}

func TestLoad_InvalidSettings(t *testing.T) {
	path := writeConfig(t, `
exchange:
  boundary: packet
socket:
  port: 70000
logging:
  level: loud
`)

	_, err := Load(NewViper(path))
	require.Error(t, err)

	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, verrs, 3)
	require.Contains(t, err.Error(), "3 validation errors")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{name: "negative timeout", mutate: func(s *Settings) { s.Exchange.Timeout = -time.Second }, field: "exchange.timeout"},
		{name: "negative grace", mutate: func(s *Settings) { s.Exchange.GracePeriod = -1 }, field: "exchange.grace_period"},
		{name: "missing cwd", mutate: func(s *Settings) { s.Process.Cwd = "/definitely/not/here" }, field: "process.cwd"},
		{name: "malformed env", mutate: func(s *Settings) { s.Process.Env = []string{"NOEQUALS"} }, field: "process.env"},
		{name: "negative connect timeout", mutate: func(s *Settings) { s.Socket.ConnectTimeout = -1 }, field: "socket.connect_timeout"},
		{name: "negative read timeout", mutate: func(s *Settings) { s.Socket.ReadTimeout = -1 }, field: "socket.read_timeout"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Default()
			tc.mutate(s)

			errs := s.Validate()
			require.Len(t, errs, 1)
			require.Equal(t, tc.field, errs[0].Field)
		})
	}
}

func TestSettings_Options(t *testing.T) {
	s := Default()
	s.Exchange.Boundary = "line"
	s.Exchange.Timeout = 3 * time.Second
	s.Socket.Port = 8080

	o := s.Options(nil)

	require.Equal(t, session.BoundaryLine, o.Boundary)
	require.Equal(t, 3*time.Second, o.Timeout)
	require.Equal(t, 8080, o.SocketPort)
	require.Equal(t, "localhost", o.SocketHost)
	require.Len(t, o.SessionOptions(), 6)
	require.Len(t, o.SocketOptions(), 2)
}

func TestValidationErrors_Error(t *testing.T) {
	require.Empty(t, ValidationErrors(nil).Error())

	single := ValidationErrors{{Field: "a", Value: 1, Message: "bad"}}
	require.Equal(t, "a: bad (got: 1)", single.Error())
}
