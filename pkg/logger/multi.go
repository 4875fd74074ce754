package logger

// MultiLogger fans messages out to several backends, such as the console
// and the daemon log file. Nil backends are dropped.
type MultiLogger struct {
	backends []Logger
}

func NewMultiLogger(backends ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, b := range backends {
		if b != nil {
			m.backends = append(m.backends, b)
		}
	}
	return m
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, b := range m.backends {
		fn(b)
	}
}

func (m *MultiLogger) Info(format string, args ...interface{}) {
	m.each(func(b Logger) { b.Info(format, args...) })
}

func (m *MultiLogger) Warning(format string, args ...interface{}) {
	m.each(func(b Logger) { b.Warning(format, args...) })
}

func (m *MultiLogger) Error(format string, args ...interface{}) {
	m.each(func(b Logger) { b.Error(format, args...) })
}

// Named tags every backend that supports component names.
func (m *MultiLogger) Named(name string) *MultiLogger {
	named := &MultiLogger{backends: make([]Logger, 0, len(m.backends))}
	m.each(func(b Logger) { named.backends = append(named.backends, WithName(b, name)) })
	return named
}

// Close closes every backend and returns the first error.
func (m *MultiLogger) Close() error {
	var first error
	m.each(func(b Logger) {
		if err := b.Close(); err != nil && first == nil {
			first = err
		}
	})
	return first
}

// WithName returns l tagged with the component name when l supports names,
// and l unchanged otherwise.
func WithName(l Logger, name string) Logger {
	switch v := l.(type) {
	case *StandardLogger:
		return v.Named(name)
	case *MultiLogger:
		return v.Named(name)
	default:
		return l
	}
}

var _ Logger = (*MultiLogger)(nil)
