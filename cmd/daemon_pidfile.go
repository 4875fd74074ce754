package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// ErrDaemonRunning is returned by PidFile.Write when the recorded process is
// still alive.
var ErrDaemonRunning = errors.New("daemon is already running")

var processRunning = isProcessRunning

// PidFile records the daemon's process ID.
type PidFile struct {
	fs   afero.Fs
	path string
}

func NewPidFile(fs afero.Fs, path string) *PidFile {
	return &PidFile{fs: fs, path: path}
}

// Write records the current process ID. A stale file left by a dead
// process is overwritten.
func (p *PidFile) Write() error {
	if pid, err := p.Read(); err == nil && pid != os.Getpid() && processRunning(pid) {
		return fmt.Errorf("%w (PID %d)", ErrDaemonRunning, pid)
	}
	if err := p.fs.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return err
	}
	return afero.WriteFile(p.fs, p.path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// Read returns the recorded PID.
func (p *PidFile) Read() (int, error) {
	data, err := afero.ReadFile(p.fs, p.path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID: %d", pid)
	}
	return pid, nil
}

// Remove deletes the PID file. A missing file is not an error.
func (p *PidFile) Remove() error {
	err := p.fs.Remove(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
