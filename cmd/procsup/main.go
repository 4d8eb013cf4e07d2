// Command procsup supervises child processes and exchanges messages with
// them over pipes or TCP.
package main

import (
	"os"

	"github.com/wagiedev/procsup-go/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args[1:], cmd.IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}))
}
