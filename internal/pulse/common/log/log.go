// Package log is the sitepulse logging facade. Components log through the
// Logger interface with a map of structured fields; the process-wide logger
// is zap-backed and replaced by Configure once the configuration is loaded.
package log

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is implemented by every sitepulse logger. A nil fields map is allowed.
type Logger interface {
	Info(fields map[string]any, msg string)
	Error(fields map[string]any, msg string)
	Debug(fields map[string]any, msg string)
	Warn(fields map[string]any, msg string)
	Panic(fields map[string]any, msg string)
	Fatal(fields map[string]any, msg string)
}

// global starts as a production logger at info so startup errors are visible.
var global Logger = newZapLogger(false, zapcore.InfoLevel)

// SetLogger installs l as the process-wide logger.
func SetLogger(l Logger) { global = l }

// GetLogger returns the process-wide logger, for injection into components.
func GetLogger() Logger { return global }

// Configure rebuilds the process-wide logger from PULSE_ENV and PULSE_LOG_LEVEL.
// "prod" selects JSON output; anything else the colored console encoder.
func Configure(env, level string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	global = newZapLogger(env != "prod", lvl)
	return nil
}

// Sync flushes the process-wide logger. Call it before exit.
func Sync() {
	if zl, ok := global.(*zapLogger); ok {
		_ = zl.base.Sync()
	}
}

func Info(fields map[string]any, msg string)  { global.Info(fields, msg) }
func Error(fields map[string]any, msg string) { global.Error(fields, msg) }
func Debug(fields map[string]any, msg string) { global.Debug(fields, msg) }
func Warn(fields map[string]any, msg string)  { global.Warn(fields, msg) }

// Panic logs msg and then panics.
func Panic(fields map[string]any, msg string) { global.Panic(fields, msg) }

// Fatal logs msg and then exits the process.
func Fatal(fields map[string]any, msg string) { global.Fatal(fields, msg) }

type zapLogger struct {
	base *zap.Logger
}

// NewZapLogger adapts base to Logger. Tests pass a logger built on
// zaptest/observer to assert on emitted entries.
func NewZapLogger(base *zap.Logger) Logger {
	return &zapLogger{base: base}
}

func newZapLogger(dev bool, level zapcore.Level) Logger {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.LevelKey = "level"

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &zapLogger{base: base}
}

// write converts fields only when level is enabled. Panic and fatal entries
// are always checked so their hooks run.
func (l *zapLogger) write(level zapcore.Level, fields map[string]any, msg string) {
	if ce := l.base.Check(level, msg); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

func (l *zapLogger) Info(fields map[string]any, msg string) {
	l.write(zapcore.InfoLevel, fields, msg)
}

func (l *zapLogger) Error(fields map[string]any, msg string) {
	l.write(zapcore.ErrorLevel, fields, msg)
}

func (l *zapLogger) Debug(fields map[string]any, msg string) {
	l.write(zapcore.DebugLevel, fields, msg)
}

func (l *zapLogger) Warn(fields map[string]any, msg string) {
	l.write(zapcore.WarnLevel, fields, msg)
}

func (l *zapLogger) Panic(fields map[string]any, msg string) {
	l.write(zapcore.PanicLevel, fields, msg)
}

func (l *zapLogger) Fatal(fields map[string]any, msg string) {
	l.write(zapcore.FatalLevel, fields, msg)
}

// zapFields emits fields sorted by key. error values keep zap's error encoding.
func zapFields(m map[string]any) []zap.Field {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(m))
	for _, k := range keys {
		if err, ok := m[k].(error); ok {
			fields = append(fields, zap.NamedError(k, err))
			continue
		}
		fields = append(fields, zap.Any(k, m[k]))
	}
	return fields
}

type discardLogger struct{}

func (discardLogger) Info(map[string]any, string)  {}
func (discardLogger) Error(map[string]any, string) {}
func (discardLogger) Debug(map[string]any, string) {}
func (discardLogger) Warn(map[string]any, string)  {}
func (discardLogger) Panic(map[string]any, string) {}
func (discardLogger) Fatal(map[string]any, string) {}

// NewNoopLogger returns a Logger that drops every entry, including panic and
// fatal ones. Components fall back to it when no logger is injected.
func NewNoopLogger() Logger {
	return discardLogger{}
}
