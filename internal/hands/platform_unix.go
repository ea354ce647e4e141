//go:build unix

package hands

import (
	"fmt"
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own process group so the whole
// speech pipeline can be terminated at once.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup terminates the child and its descendants. Safe to call
// on an already-dead process.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
		return
	}
	_ = cmd.Process.Kill()
}

func signalPid(pid int, sig syscall.Signal) string {
	if err := syscall.Kill(pid, sig); err != nil {
		return fmt.Sprintf("ERROR: signal pid %d: %v", pid, err)
	}
	return fmt.Sprintf("SUCCESS: signal sent to pid %d", pid)
}
