//go:build !linux

package stress

import "syscall"

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
