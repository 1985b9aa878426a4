package logger

import (
	"context"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type (
	LogLevel string

	// Logger defines the interface for structured logging
	Logger interface {
		Debug(msg string, keyvals ...any)
		Info(msg string, keyvals ...any)
		Warn(msg string, keyvals ...any)
		Error(msg string, keyvals ...any)
		With(keyvals ...any) Logger
	}

	// loggerImpl implements Logger using the charm logger
	loggerImpl struct {
		charmLogger *charmlog.Logger
	}
)

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

func (c LogLevel) String() string {
	return string(c)
}

func (c LogLevel) toCharmlogLevel() charmlog.Level {
	switch c {
	case DebugLevel:
		return charmlog.DebugLevel
	case InfoLevel:
		return charmlog.InfoLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func (l *loggerImpl) Debug(msg string, keyvals ...any) {
	l.charmLogger.Debug(msg, keyvals...)
}

func (l *loggerImpl) Info(msg string, keyvals ...any) {
	l.charmLogger.Info(msg, keyvals...)
}

func (l *loggerImpl) Warn(msg string, keyvals ...any) {
	l.charmLogger.Warn(msg, keyvals...)
}

func (l *loggerImpl) Error(msg string, keyvals ...any) {
	l.charmLogger.Error(msg, keyvals...)
}

func (l *loggerImpl) With(keyvals ...any) Logger {
	return &loggerImpl{charmLogger: l.charmLogger.With(keyvals...)}
}

type Config struct {
	Level      LogLevel
	Output     io.Writer
	JSON       bool
	TimeFormat string
}

func DefaultConfig() *Config {
	return &Config{
		Level:      InfoLevel,
		Output:     os.Stderr,
		JSON:       false,
		TimeFormat: "15:04:05",
	}
}

func NewLogger(cfg *Config) Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = "15:04:05"
	}
	charmLogger := charmlog.NewWithOptions(output, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Level:           cfg.Level.toCharmlogLevel(),
	})
	if cfg.JSON {
		charmLogger.SetFormatter(charmlog.JSONFormatter)
	} else {
		charmLogger.SetFormatter(charmlog.TextFormatter)
	}
	return &loggerImpl{charmLogger: charmLogger}
}

type ctxKey struct{}

// ContextWithLogger returns a context carrying the given logger.
func ContextWithLogger(ctx context.Context, log Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger carried by ctx, or a default logger when the
// context carries none.
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(Logger); ok {
			return log
		}
	}
	return NewLogger(nil)
}
