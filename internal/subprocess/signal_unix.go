//go:build unix

package subprocess

import (
	stderrors "errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcessGroup starts the child as the leader of a new process group.
func configureProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}

	cmd.SysProcAttr.Setpgid = true
}

// signalProcess delivers sig to the child's process group, falling back to
// the child alone. A group or process that is already gone is not an error.
func signalProcess(proc *os.Process, sig os.Signal) error {
	num, ok := sig.(syscall.Signal)
	if !ok {
		num = unix.SIGKILL
	}

	if err := unix.Kill(-proc.Pid, num); err == nil {
		return nil
	}

	// The child may have left its group; signal it directly.
	err := proc.Signal(sig)
	if stderrors.Is(err, os.ErrProcessDone) || stderrors.Is(err, unix.ESRCH) {
		return nil
	}

	return err
}
