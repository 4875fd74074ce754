//go:build !windows

package cmd

import "golang.org/x/sys/unix"

// isProcessRunning reports whether pid exists, using signal 0.
func isProcessRunning(pid int) bool {
	return unix.Kill(pid, 0) == nil
}
