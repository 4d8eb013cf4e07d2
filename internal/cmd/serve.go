package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wagiedev/procsup-go"
)

// listenerTimeout bounds how long serve waits for the child to listen.
const listenerTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var messages []string

	cmd := &cobra.Command{
		Use:   "serve [flags] [--] COMMAND [ARG...]",
		Short: "Start a line server child, talk to it over TCP, then stop it",
		Long: `Start COMMAND, which must serve the one-line TCP protocol at --host:--port,
wait for it to listen, send each --message on its own connection, print the
replies, shut the child down, and confirm the server is gone.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			host, port := a.settings.Socket.Host, a.settings.Socket.Port

			err := procsup.WithChild(ctx, argv, func(c *procsup.Child) error {
				waitCtx, cancel := context.WithTimeout(ctx, listenerTimeout)
				defer cancel()

				if err := c.WaitForListener(waitCtx); err != nil {
					return err
				}

				fmt.Fprintf(a.streams.Out, "Server pid %d listening on %s:%d\n", c.Pid(), host, port)

				for _, msg := range messages {
					reply, err := c.Send(ctx, msg)
					if err != nil {
						return err
					}

					fmt.Fprint(a.streams.Out, reply)
				}

				return nil
			}, a.options(procsup.WithSocketAddress(host, port))...)
			if err != nil {
				return err
			}

			_, err = procsup.Send(ctx, host, port, "Are you still there?", a.options()...)
			if stderrors.Is(err, procsup.ErrConnectionRefused) {
				fmt.Fprintln(a.streams.Out, "Server stopped: connection refused")

				return nil
			}

			if err == nil {
				return fmt.Errorf("server at %s:%d still answering after shutdown", host, port)
			}

			return err
		},
	}

	cmd.Flags().StringArrayVarP(&messages, "message", "m", []string{"Hello, world!", "Are you running?"},
		"message to send (repeatable)")
	addProcessFlags(cmd)
	addSocketFlags(cmd)

	return cmd
}
