package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wagiedev/procsup-go"
	"github.com/wagiedev/procsup-go/internal/config"
)

// Exit codes besides the child's own.
const (
	exitFailure   = 1
	exitTimedOut  = 124
	exitCancelled = 130
)

// exitCode is returned from a command to request a specific exit status.
type exitCode int

func (c exitCode) Error() string {
	return "exit status " + strconv.Itoa(int(c))
}

// IO bundles the standard streams of the command.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// flagKeys maps command-line flags onto settings keys. Only flags a
// command actually defines are bound.
var flagKeys = map[string]string{
	"log-level":        "logging.level",
	"timeout":          "exchange.timeout",
	"grace-period":     "exchange.grace_period",
	"boundary":         "exchange.boundary",
	"preserve-partial": "exchange.preserve_partial",
	"cwd":              "process.cwd",
	"env":              "process.env",
	"host":             "socket.host",
	"port":             "socket.port",
	"connect-timeout":  "socket.connect_timeout",
	"read-timeout":     "socket.read_timeout",
}

// app carries the loaded settings into every subcommand.
type app struct {
	streams    IO
	configFile string
	settings   *config.Settings
	log        *slog.Logger
}

// Main runs procsup with args (without the program name) and returns the
// process exit code. SIGINT and SIGTERM cancel the running operation.
func Main(args []string, streams IO) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(streams)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if code, ok := stderrors.AsType[exitCode](err); ok {
		return int(code)
	}

	fmt.Fprintln(streams.Err, "Error:", err)

	return exitFailure
}

// NewRootCommand builds the procsup command tree bound to streams.
func NewRootCommand(streams IO) *cobra.Command {
	a := &app{streams: streams}

	root := &cobra.Command{
		Use:   "procsup",
		Short: "Supervise child processes and exchange messages with them",
		Long: `procsup starts child processes, talks to them over their pipes or over
TCP, and makes sure they are terminated, killed if necessary, and reaped
when an exchange times out or is cancelled.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadSettings(cmd)
		},
	}

	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "",
		"config file (default is $HOME/.config/procsup/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newRunCommand(a),
		newExchangeCommand(a),
		newSendCommand(a),
		newServeCommand(a),
	)

	return root
}

// loadSettings reads file and environment settings, with cmd's flags
// taking precedence.
func (a *app) loadSettings(cmd *cobra.Command) error {
	v := config.NewViper(a.configFile)

	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	settings, err := config.Load(v)
	if err != nil {
		return err
	}

	a.settings = settings
	a.log = slog.New(slog.NewTextHandler(a.streams.Err, &slog.HandlerOptions{Level: settings.LogLevel()}))

	a.log.Debug("Settings loaded", "config_file", v.ConfigFileUsed())

	return nil
}

// options returns the supervisor options derived from the settings.
func (a *app) options(extra ...procsup.Option) []procsup.Option {
	return append([]procsup.Option{
		procsup.WithLogger(a.log),
		procsup.WithSettings(a.settings),
	}, extra...)
}

// addProcessFlags registers the flags shared by commands that spawn a child.
func addProcessFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.SetInterspersed(false)
	flags.Duration("timeout", 0, "bound each exchange (0 = no deadline)")
	flags.Duration("grace-period", 0, "wait between terminate and kill (default 5s)")
	flags.Bool("preserve-partial", true, "keep output captured before a timeout")
	flags.String("cwd", "", "working directory for the child")
	flags.StringSlice("env", nil, "environment override NAME=value (repeatable)")
}

// addSocketFlags registers the flags of commands that talk TCP.
func addSocketFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.String("host", "", "server host (default localhost)")
	flags.Int("port", 0, "server port (default 12345)")
	flags.Duration("connect-timeout", 0, "bound the TCP connect (default 5s)")
	flags.Duration("read-timeout", 0, "bound the reply read (0 = unbounded)")
}

// statusExit maps a non-completed exchange status onto an exit code.
func statusExit(status procsup.Status) error {
	switch status {
	case procsup.StatusTimedOut:
		return exitCode(exitTimedOut)
	case procsup.StatusCancelled:
		return exitCode(exitCancelled)
	default:
		return nil
	}
}
