// Package logger provides the logging interface shared by the reminder
// daemon components. Messages carry a level prefix and, optionally, the name
// of the component that emitted them.
package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// Logger is the logging interface accepted by every daemon component.
type Logger interface {
	// Info logs an informational message (e.g., "daemon listening on :8765").
	Info(format string, args ...interface{})

	// Warning logs a recoverable condition (e.g., "exact alarms not permitted").
	Warning(format string, args ...interface{})

	// Error logs a failure reported by a host service.
	Error(format string, args ...interface{})

	// Close releases resources held by the logger. Safe to call more than once.
	Close() error
}

// StandardLogger wraps a stdlib *log.Logger.
type StandardLogger struct {
	logger *log.Logger
	name   string
	closer io.Closer
}

// NewStandardLogger creates a logger that writes through l.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// NewFileLogger creates a logger writing to w and closing it on Close.
func NewFileLogger(w io.WriteCloser) *StandardLogger {
	return &StandardLogger{
		logger: log.New(w, "", log.LstdFlags),
		closer: w,
	}
}

// Named returns a logger that tags every message with the component name.
func (s *StandardLogger) Named(name string) *StandardLogger {
	if s.name != "" {
		name = s.name + "." + name
	}
	return &StandardLogger{logger: s.logger, name: name}
}

func (s *StandardLogger) printf(level, format string, args ...interface{}) {
	if s.name != "" {
		s.logger.Printf("["+level+"] "+s.name+": "+format, args...)
		return
	}
	s.logger.Printf("["+level+"] "+format, args...)
}

// Info logs with the [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.printf("INFO", format, args...)
}

// Warning logs with the [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.printf("WARNING", format, args...)
}

// Error logs with the [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.printf("ERROR", format, args...)
}

// Close closes the underlying writer when the logger owns one.
func (s *StandardLogger) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}

// NopLogger discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// stdWriter turns lines written by a *log.Logger into Info calls.
type stdWriter struct {
	l Logger
}

func (w stdWriter) Write(p []byte) (int, error) {
	w.l.Info("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// ToStdLogger adapts l for code that expects a *log.Logger.
func ToStdLogger(l Logger) *log.Logger {
	return log.New(stdWriter{l: OrNop(l)}, "", 0)
}

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger records log calls for tests. It is safe for concurrent use
// because the wake service logs from its own goroutine.
type MockLogger struct {
	mu           sync.Mutex
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

// NewMockLogger creates a new MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InfoCalls = append(m.InfoCalls, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WarningCalls = append(m.WarningCalls, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalls = append(m.ErrorCalls, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// Errors returns a copy of the recorded error messages.
func (m *MockLogger) Errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ErrorCalls...)
}

// Warnings returns a copy of the recorded warning messages.
func (m *MockLogger) Warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.WarningCalls...)
}

var _ Logger = (*MockLogger)(nil)
