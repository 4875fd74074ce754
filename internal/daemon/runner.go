// Package daemon provides the lifecycle runner for the AquaBalance daemon.
// It owns the listener, starts the serve loop and coordinates graceful
// shutdown.
package daemon

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

var (
	ErrAlreadyRunning  = errors.New("daemon is already running")
	ErrNotRunning      = errors.New("daemon is not running")
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// DefaultListen is used when Config.Listen is empty.
const DefaultListen = "127.0.0.1:0"

type Config struct {
	// Listen is the TCP address of the RPC and action-link server.
	Listen string
	// ShutdownTimeout bounds ShutdownFunc. Zero waits indefinitely.
	ShutdownTimeout time.Duration
}

// Dependencies are the pieces the runner drives. Nil fields are optional;
// ListenerFactory defaults to net.Listen.
type Dependencies struct {
	ListenerFactory func(network, address string) (net.Listener, error)
	// Serve owns the listener until it is closed.
	Serve        func(net.Listener) error
	ShutdownFunc func() error
}

type Runner struct {
	config *Config
	deps   *Dependencies

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	listener net.Listener
}

func New(config *Config, deps *Dependencies) *Runner {
	if config == nil {
		config = &Config{}
	}
	if config.Listen == "" {
		config.Listen = DefaultListen
	}
	if deps == nil {
		deps = &Dependencies{}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}
	return &Runner{config: config, deps: deps}
}

// Config returns the runner's configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// Addr returns the bound address, or nil when not running.
func (r *Runner) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Start binds the listener, runs Serve and blocks until the context is
// canceled, Shutdown is called or Serve fails.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}

	ctx, r.cancel = context.WithCancel(ctx)

	listener, err := r.deps.ListenerFactory("tcp", r.config.Listen)
	if err != nil {
		r.cancel()
		r.mu.Unlock()
		return err
	}
	r.listener = listener
	r.running = true
	r.mu.Unlock()

	serveErr := make(chan error, 1)
	if r.deps.Serve != nil {
		go func() {
			serveErr <- r.deps.Serve(listener)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-serveErr:
	}
	r.cleanupOnStop()
	if err == nil {
		err = ctx.Err()
	}
	return err
}

func (r *Runner) cleanupOnStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// stopLocked marks the runner stopped, cancels Start and releases the
// listener. Caller must hold the mutex.
func (r *Runner) stopLocked() {
	r.running = false
	if r.cancel != nil {
		r.cancel()
	}
	if r.listener != nil {
		_ = r.listener.Close()
		r.listener = nil
	}
}

// Shutdown runs ShutdownFunc and stops the runner. The runner is stopped
// even when ShutdownFunc fails or overruns Config.ShutdownTimeout; the
// error is returned to the caller.
func (r *Runner) Shutdown() error {
	if !r.IsRunning() {
		return ErrNotRunning
	}
	err := r.cleanup()

	r.mu.Lock()
	r.stopLocked()
	r.mu.Unlock()
	return err
}

func (r *Runner) cleanup() error {
	fn := r.deps.ShutdownFunc
	if fn == nil {
		return nil
	}
	if r.config.ShutdownTimeout <= 0 {
		return fn()
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	timer := time.NewTimer(r.config.ShutdownTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrShutdownTimeout
	}
}

// IsRunning reports whether Start is serving.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
