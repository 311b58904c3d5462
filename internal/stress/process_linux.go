//go:build linux

package stress

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProcAttr makes the kernel kill a worker process when its parent dies.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Pdeathsig: unix.SIGKILL}
}
