package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wagiedev/procsup-go"
)

func newExchangeCommand(a *app) *cobra.Command {
	var requests []string

	cmd := &cobra.Command{
		Use:   "exchange [flags] [--] COMMAND [ARG...]",
		Short: "Send requests to a child over its pipes",
		Long: `Start a command and send each --request to its stdin in turn.

With --boundary exit (the default) the child's stdin is closed after the
request and everything it writes until it exits is the reply, so only one
request makes sense. With --boundary line each request gets one reply line
and the child keeps running between requests.

Exits with the child's code when it exits with an error, 124 when an
exchange timed out, and 130 when interrupted. A summary of every exchange is written to stderr.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()

			if len(requests) == 0 {
				requests = []string{""}
			}

			return procsup.WithChild(ctx, argv, func(c *procsup.Child) error {
				for _, request := range requests {
					out, err := c.Exchange(ctx, request)
					if err != nil {
						return err
					}

					a.printOutcome(out)

					if !out.Completed() {
						return statusExit(out.Status)
					}

					// A child that exited with an error ends the run with its code.
					if code, exited := out.ExitCode(); exited && code > 0 {
						return exitCode(code)
					}
				}

				return nil
			}, a.options()...)
		},
	}

	cmd.Flags().StringArrayVarP(&requests, "request", "r", nil, "request to send (repeatable)")
	cmd.Flags().String("boundary", "", "reply boundary: exit or line (default exit)")
	addProcessFlags(cmd)

	return cmd
}

// printOutcome writes the reply to stdout and a summary to stderr.
func (a *app) printOutcome(out procsup.Outcome) {
	fmt.Fprint(a.streams.Out, out.Stdout)
	fmt.Fprint(a.streams.Err, out.Stderr)

	exit := "running"
	if out.Exit != nil {
		exit = out.Exit.String()
	}

	fmt.Fprintf(a.streams.Err, "[%s] %s, %s", out.ID, out.Status, exit)

	if out.Killed {
		fmt.Fprint(a.streams.Err, ", killed")
	}

	fmt.Fprintf(a.streams.Err, " (%s)\n", out.Duration.Round(time.Millisecond))
}
