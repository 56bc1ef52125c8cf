//go:build !windows

package shellexec

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func platformShell(command string) *exec.Cmd {
	return exec.Command("bash", "-c", command)
}

// setNewProcessGroup arranges for cmd's child to become the leader of a
// new process group, so the whole group can be signalled together.
func setNewProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// terminateGroup sends sig to the process group led by pid.
func terminateGroup(pid int, sig syscall.Signal) error {
	return unix.Kill(-pid, sig)
}

const (
	sigterm = syscall.SIGTERM
	sigkill = syscall.SIGKILL
)
