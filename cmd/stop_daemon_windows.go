//go:build windows

package cmd

import "os"

// terminate interrupts the daemon. Windows cannot deliver os.Interrupt to
// another process, so that falls back to Kill.
func terminate(p *os.Process) error {
	if err := p.Signal(os.Interrupt); err != nil {
		return p.Kill()
	}
	return nil
}
