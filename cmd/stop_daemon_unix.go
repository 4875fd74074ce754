//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// terminate requests a graceful shutdown with SIGTERM.
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
