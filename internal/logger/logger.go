// Package logger defines the logging abstraction used across the exporter.
// Concrete backends (zap) live in subpackages so that core packages depend
// only on this interface.
package logger

// Field is a single structured logging key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a structured logging field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger is the minimal structured logging contract.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Named returns a logger scoped with the given sub-name.
	Named(name string) Logger

	// With returns a logger that attaches the given fields to every entry.
	With(fields ...Field) Logger
}

// NopLogger discards everything. Used when logging is disabled and as the
// default in tests.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}

func (n NopLogger) Named(string) Logger  { return n }
func (n NopLogger) With(...Field) Logger { return n }
