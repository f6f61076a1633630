//go:build windows

package executor

import "os/exec"

var defaultShell = []string{"cmd", "/C"}

func setProcessGroup(*exec.Cmd) {}

func killProcessGroup(c *exec.Cmd) {
	if c.Process != nil {
		_ = c.Process.Kill()
	}
}
