// Command sampleapp is a small child program for trying out procsup.
package main

import (
	"os"

	"github.com/wagiedev/procsup-go/internal/sampleapp"
)

func main() {
	os.Exit(sampleapp.Main(os.Args[1:], sampleapp.IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}))
}
