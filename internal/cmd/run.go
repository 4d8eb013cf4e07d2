package cmd

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wagiedev/procsup-go"
)

func newRunCommand(a *app) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "run [flags] [--] COMMAND [ARG...]",
		Short: "Run a command once and capture its output",
		Long: `Run a command, write --input to its stdin, and print what it writes.

Exits with the command's exit code, 124 when the timeout elapsed and the
command was terminated, and 130 when interrupted. Use --input - to pass
procsup's own stdin through.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			if input == "-" {
				data, err := io.ReadAll(a.streams.In)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}

				input = string(data)
			}

			res, err := procsup.Run(cmd.Context(), argv, a.options(procsup.WithInput(input))...)
			if res != nil {
				fmt.Fprint(a.streams.Out, res.Stdout)
				fmt.Fprint(a.streams.Err, res.Stderr)
			}

			if exitErr, ok := stderrors.AsType[*procsup.ExitError](err); ok {
				if exitErr.ExitCode < 0 {
					return exitCode(exitFailure)
				}

				return exitCode(exitErr.ExitCode)
			}

			if err != nil && res != nil {
				a.log.Warn("Command did not finish", "status", res.Status.String(), "error", err)

				if code := statusExit(res.Status); code != nil {
					return code
				}
			}

			return err
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "data written to the command's stdin")
	addProcessFlags(cmd)

	return cmd
}
