// Package secret manages the RPC bearer secret. The secret lives in the
// operating system keyring and falls back to a 0600 file in the data
// directory when no keyring is available.
package secret

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"

	"github.com/aquabalance/aquabalance/pkg/logger"
)

const (
	serviceName  = "aquabalance"
	keyField     = "rpc-secret"
	fileName     = "rpc.secret"
	fileMode     = 0600
	secretLength = 32
)

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

// Keyring stores the secret in the OS keyring.
type Keyring struct {
	Service string
	User    string
}

// NewKeyring returns the daemon's keyring entry.
func NewKeyring() *Keyring {
	return &Keyring{Service: serviceName, User: keyField}
}

// Get returns the stored secret. The error wraps keyring.ErrNotFound when no
// secret is stored.
func (k *Keyring) Get() (string, error) {
	return keyringGet(k.Service, k.User)
}

// Set stores s.
func (k *Keyring) Set(s string) error {
	return keyringSet(k.Service, k.User, s)
}

// Delete removes the stored secret.
func (k *Keyring) Delete() error {
	return keyringDelete(k.Service, k.User)
}

// File stores the secret in a file on fs.
type File struct {
	fs   afero.Fs
	path string
}

// NewFile returns a file store at dir/rpc.secret.
func NewFile(fs afero.Fs, dir string) *File {
	return &File{fs: fs, path: filepath.Join(dir, fileName)}
}

// Get returns the stored secret. The error satisfies os.IsNotExist when the
// file is missing.
func (f *File) Get() (string, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", fmt.Errorf("empty secret file %s", f.path)
	}
	return s, nil
}

// Set writes s atomically with 0600 permissions.
func (f *File) Set(s string) error {
	dir := filepath.Dir(f.path)
	if err := f.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create secret dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, []byte(s), fileMode); err != nil {
		return fmt.Errorf("write secret: %w", err)
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		f.fs.Remove(tmp)
		return fmt.Errorf("rename secret file: %w", err)
	}
	return nil
}

// Delete removes the secret file. A missing file is not an error.
func (f *File) Delete() error {
	err := f.fs.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Generate returns a new random hex secret.
func Generate() (string, error) {
	b := make([]byte, secretLength)
	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Manager loads or creates the RPC secret.
type Manager struct {
	keyring *Keyring
	file    *File
	log     logger.Logger
}

// NewManager creates a Manager. kr may be nil to skip the keyring.
func NewManager(kr *Keyring, file *File, l logger.Logger) *Manager {
	return &Manager{keyring: kr, file: file, log: logger.OrNop(l)}
}

// Load returns the existing secret or creates one. The keyring is tried
// first; any keyring failure other than a missing entry switches to the
// file store.
func (m *Manager) Load() (string, error) {
	if m.keyring != nil {
		s, err := m.keyring.Get()
		if err == nil {
			return s, nil
		}
		if errors.Is(err, keyring.ErrNotFound) {
			if s, ferr := m.file.Get(); ferr == nil {
				return s, nil
			}
			s, err = Generate()
			if err != nil {
				return "", err
			}
			if err = m.keyring.Set(s); err == nil {
				return s, nil
			}
		}
		m.log.Warning("keyring unavailable, using %s: %v", m.file.path, err)
	}
	return m.loadFile()
}

func (m *Manager) loadFile() (string, error) {
	s, err := m.file.Get()
	if err == nil {
		return s, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	s, err = Generate()
	if err != nil {
		return "", err
	}
	if err := m.file.Set(s); err != nil {
		return "", err
	}
	return s, nil
}

// Reset removes the secret from both stores.
func (m *Manager) Reset() error {
	var errs []error
	if m.keyring != nil {
		if err := m.keyring.Delete(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if err := m.file.Delete(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
