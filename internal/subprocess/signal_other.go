//go:build !unix

package subprocess

import (
	stderrors "errors"
	"os"
	"os/exec"
	"syscall"
)

func configureProcessGroup(*exec.Cmd) {}

// signalProcess delivers sig to the child. Platforms without SIGTERM
// delivery fall back to killing the process.
func signalProcess(proc *os.Process, sig os.Signal) error {
	err := proc.Signal(sig)
	if err != nil && sig == syscall.SIGTERM {
		err = proc.Kill()
	}

	if stderrors.Is(err, os.ErrProcessDone) {
		return nil
	}

	return err
}
