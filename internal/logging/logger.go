// Package logging provides the printf-style logging contract used across the
// pipeline plus a slog-backed default implementation.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"sync"
)

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

// Config configures the default slog-backed logger.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Output io.Writer
}

type slogLogger struct {
	logger *slog.Logger
}

// New creates a structured logger backed by slog.
func New(config Config) Logger {
	level := slog.LevelInfo
	switch strings.ToLower(config.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(config.Format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return &slogLogger{logger: slog.New(handler)}
}

func (l *slogLogger) Debug(format string, args ...any) { l.logger.Debug(fmt.Sprintf(format, args...)) }
func (l *slogLogger) Info(format string, args ...any)  { l.logger.Info(fmt.Sprintf(format, args...)) }
func (l *slogLogger) Warn(format string, args ...any)  { l.logger.Warn(fmt.Sprintf(format, args...)) }
func (l *slogLogger) Error(format string, args ...any) { l.logger.Error(fmt.Sprintf(format, args...)) }

var (
	defaultOnce   sync.Once
	defaultLogger Logger
)

// Default returns the process-wide default logger.
func Default() Logger {
	defaultOnce.Do(func() {
		level := os.Getenv("BANTZ_LOG_LEVEL")
		if level == "" {
			level = "info"
		}
		defaultLogger = New(Config{Level: level})
	})
	return defaultLogger
}

type componentLogger struct {
	inner     Logger
	component string
}

// NewComponentLogger returns the default logger scoped to a component tag.
func NewComponentLogger(component string) Logger {
	return &componentLogger{inner: Default(), component: component}
}

// WithComponent scopes an arbitrary logger to a component tag.
func WithComponent(logger Logger, component string) Logger {
	return &componentLogger{inner: OrNop(logger), component: component}
}

func (l *componentLogger) prefix(format string) string {
	return "[" + l.component + "] " + format
}

func (l *componentLogger) Debug(format string, args ...any) { l.inner.Debug(l.prefix(format), args...) }
func (l *componentLogger) Info(format string, args ...any)  { l.inner.Info(l.prefix(format), args...) }
func (l *componentLogger) Warn(format string, args ...any)  { l.inner.Warn(l.prefix(format), args...) }
func (l *componentLogger) Error(format string, args ...any) { l.inner.Error(l.prefix(format), args...) }
