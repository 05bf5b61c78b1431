package watcher

import (
	"os/exec"
	"syscall"
)

// bindToParent makes the kernel send SIGTERM to the watcher when the coordinator dies.
func bindToParent(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}
}
