package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wagiedev/procsup-go"
)

func newSendCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [flags] MESSAGE...",
		Short: "Send one line to a TCP server and print the reply",
		Long: `Connect to --host:--port, send the arguments joined by spaces as one
line, print the reply line, and disconnect.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := procsup.Send(cmd.Context(), a.settings.Socket.Host, a.settings.Socket.Port,
				strings.Join(args, " "), a.options()...)
			if err != nil {
				return err
			}

			fmt.Fprint(a.streams.Out, reply)

			return nil
		},
	}

	addSocketFlags(cmd)

	return cmd
}
