//go:build unix

package runtime

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts cmd in its own process group so cancellation
// also reaches children that inherited its pipes.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
