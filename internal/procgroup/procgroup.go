// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup runs decoder subprocesses in their own process group so
// that cancelling a frame request also reaps any helper processes.
package procgroup

import (
	"os/exec"
	"syscall"
)

// Bind puts cmd in a new process group and makes context cancellation kill
// the whole group instead of only the leader.
func Bind(cmd *exec.Cmd) {
	Set(cmd)
	cmd.Cancel = func() error {
		return Kill(cmd, syscall.SIGKILL)
	}
}
