//go:build unix

package nougat

import (
	"os/exec"
	"syscall"
)

// setProcessGroup runs the predictor in its own process group and kills the
// whole group on cancellation, taking forked workers down with the parent.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
