//go:build !windows

package executor

import (
	"os/exec"
	"syscall"
)

var defaultShell = []string{"sh", "-c"}

// setProcessGroup starts the command in a new process group and makes
// cancellation signal the whole group rather than just the shell.
func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
}

// killProcessGroup makes sure nothing from the group outlives the step.
func killProcessGroup(c *exec.Cmd) {
	if c.Process != nil {
		_ = syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
