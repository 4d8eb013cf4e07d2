package sampleapp

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wagiedev/procsup-go/internal/socket"
)

// EnvHelper is the environment variable that switches a test binary into
// sample application mode.
const EnvHelper = "PROCSUP_SAMPLEAPP"

// slowWork is how long "work slowly" takes in the interactive loop.
const slowWork = 30 * time.Second

// exitCode is returned from a command to request a specific exit status.
type exitCode int

func (c exitCode) Error() string {
	return "exit status " + strconv.Itoa(int(c))
}

// IO bundles the standard streams of the application.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Main runs the application with args (without the program name) and
// returns the process exit code.
func Main(args []string, streams IO) int {
	cmd := NewCommand(streams)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	if code, ok := stderrors.AsType[exitCode](err); ok {
		return int(code)
	}

	fmt.Fprintln(streams.Err, "Error:", err)

	return 2
}

// RunIfHelper runs Main and exits when the current process was started as
// a sample application child. Test binaries call it from TestMain.
func RunIfHelper() {
	if os.Getenv(EnvHelper) != "1" {
		return
	}

	os.Exit(Main(os.Args[1:], IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}))
}

// NewCommand builds the root command bound to streams.
func NewCommand(streams IO) *cobra.Command {
	root := &cobra.Command{
		Use:           "sampleapp",
		Short:         "Sample child process for the supervisor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	root.AddCommand(
		newSayHiCommand(streams),
		newErrorCommand(streams),
		newPrintEnvCommand(streams),
		newPwdCommand(streams),
		newInteractCommand(streams),
		newEchoOnceCommand(streams),
		newEchoCommand(streams),
		newSleepForeverCommand(streams),
		newFloodCommand(streams),
		newServeCommand(streams),
	)

	return root
}

func newSayHiCommand(streams IO) *cobra.Command {
	return &cobra.Command{
		Use:   "say-hi",
		Short: "Print a greeting",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprintln(streams.Out, "Hi!")

			return nil
		},
	}
}

func newErrorCommand(streams IO) *cobra.Command {
	var code int

	cmd := &cobra.Command{
		Use:   "error",
		Short: "Report an error and exit non-zero",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprintln(streams.Err, "Something went wrong!")

			return exitCode(code)
		},
	}

	cmd.Flags().IntVar(&code, "code", 1, "exit code to return")

	return cmd
}

func newPrintEnvCommand(streams IO) *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "print-env",
		Short: "Print environment variables as NAME=value lines",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			env := os.Environ()
			slices.Sort(env)

			for _, kv := range env {
				name, _, _ := strings.Cut(kv, "=")
				if len(names) > 0 && !slices.Contains(names, name) {
					continue
				}

				fmt.Fprintln(streams.Out, kv)
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&names, "name", nil, "only print these variables")

	return cmd
}

func newPwdCommand(streams IO) *cobra.Command {
	return &cobra.Command{
		Use:   "pwd",
		Short: "Print the working directory",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}

			fmt.Fprintln(streams.Out, dir)

			return nil
		},
	}
}

func newInteractCommand(streams IO) *cobra.Command {
	return &cobra.Command{
		Use:   "interact",
		Short: "Read commands from stdin: work, work slowly, error, exit",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			scanner := bufio.NewScanner(streams.In)

			for scanner.Scan() {
				switch line := strings.TrimSpace(scanner.Text()); line {
				case "":
					continue
				case "exit":
					fmt.Fprintln(streams.Out, "Exiting.")

					return nil
				case "work":
					fmt.Fprintln(streams.Out, "Working...")
					fmt.Fprintln(streams.Out, "Done.")
				case "work slowly":
					fmt.Fprintln(streams.Out, "Working slowly...")
					time.Sleep(slowWork)
					fmt.Fprintln(streams.Out, "Done.")
				case "error":
					fmt.Fprintln(streams.Err, "Error: cannot do that")

					return exitCode(1)
				default:
					fmt.Fprintf(streams.Out, "Unknown command: %s\n", line)
				}
			}

			return scanner.Err()
		},
	}
}

func newEchoOnceCommand(streams IO) *cobra.Command {
	return &cobra.Command{
		Use:   "echo-once",
		Short: "Echo one line from stdin, then exit",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			line, err := bufio.NewReader(streams.In).ReadString('\n')
			if err != nil && !stderrors.Is(err, io.EOF) {
				return err
			}

			_, err = io.WriteString(streams.Out, line)

			return err
		},
	}
}

func newEchoCommand(streams IO) *cobra.Command {
	var stderrPrefix string

	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Echo every stdin line until EOF",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			scanner := bufio.NewScanner(streams.In)

			for scanner.Scan() {
				if stderrPrefix != "" {
					fmt.Fprintln(streams.Err, stderrPrefix+scanner.Text())
				}

				fmt.Fprintln(streams.Out, scanner.Text())
			}

			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&stderrPrefix, "stderr-prefix", "", "also write each line to stderr with this prefix")

	return cmd
}

func newSleepForeverCommand(streams IO) *cobra.Command {
	var (
		ignoreTerm bool
		partial    string
	)

	cmd := &cobra.Command{
		Use:   "sleep-forever",
		Short: "Never reply and never exit",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if ignoreTerm {
				signal.Ignore(syscall.SIGTERM)
			}

			if partial != "" {
				fmt.Fprint(streams.Out, partial)
				fmt.Fprint(streams.Err, partial)
			}

			for {
				time.Sleep(time.Hour)
			}
		},
	}

	cmd.Flags().BoolVar(&ignoreTerm, "ignore-term", false, "ignore SIGTERM")
	cmd.Flags().StringVar(&partial, "partial", "", "write this to stdout and stderr before hanging")

	return cmd
}

func newFloodCommand(streams IO) *cobra.Command {
	var (
		stderrBytes int
		message     string
	)

	cmd := &cobra.Command{
		Use:   "flood",
		Short: "Write a large block to stderr, then a message to stdout",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			line := strings.Repeat("e", 79) + "\n"

			for written := 0; written < stderrBytes; written += len(line) {
				if _, err := io.WriteString(streams.Err, line[:min(len(line), stderrBytes-written)]); err != nil {
					return err
				}
			}

			_, err := fmt.Fprintln(streams.Out, message)

			return err
		},
	}

	cmd.Flags().IntVar(&stderrBytes, "stderr-bytes", 1<<20, "number of bytes to write to stderr")
	cmd.Flags().StringVar(&message, "message", "done", "stdout message written afterwards")

	return cmd
}

func newServeCommand(streams IO) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer one line per TCP connection until terminated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
			if err != nil {
				return err
			}

			fmt.Fprintf(streams.Out, "Listening on %s\n", ln.Addr())

			log := slog.New(slog.NewTextHandler(streams.Err, nil))

			return socket.Serve(ctx, log, ln, func(line string) string {
				return "Received: " + line
			})
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "listen host")
	cmd.Flags().IntVar(&port, "port", 12345, "listen port")

	return cmd
}
