package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/aquabalance/aquabalance/cmd/common"
)

const (
	stopTimeout  = 5 * time.Second
	pollInterval = 100 * time.Millisecond
)

var killProcess = killDaemon

func stopDaemon(ctx *cli.Context) error {
	cfg := loadConfig(ctx)
	pid, err := NewPidFile(appFs, cfg.PidPath()).Read()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(common.Out, "Daemon is not running (PID file not found)")
			return nil
		}
		common.PrintRuntimeErr(ctx, "stop", "pidfile", err)
		return nil
	}

	fmt.Fprintf(common.Out, "Stopping daemon (PID %d)...\n", pid)
	if err := killProcess(pid); err != nil {
		common.PrintRuntimeErr(ctx, "stop", "kill", err)
		return nil
	}
	// The daemon removes its PID file on exit.
	fmt.Fprintln(common.Out, "Daemon stopped successfully")
	return nil
}

// killDaemon asks the daemon to terminate and kills it if it is still
// running after stopTimeout.
func killDaemon(pid int) error {
	if !isProcessRunning(pid) {
		return fmt.Errorf("daemon not running (PID %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("process not found: %w", err)
	}
	if err := terminate(proc); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	if waitExit(pid, stopTimeout) {
		return nil
	}

	fmt.Fprintln(common.Out, "Graceful shutdown timeout, forcing kill...")
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("failed to kill daemon: %w", err)
	}
	waitExit(pid, time.Second)
	return nil
}

// waitExit polls until pid is gone or timeout passes.
func waitExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !isProcessRunning(pid) {
			return true
		}
		time.Sleep(pollInterval)
	}
	return !isProcessRunning(pid)
}
