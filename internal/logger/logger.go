// Package logger provides levelled logging for clausewise.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users follow the decode pipeline.
// Warnings and errors are always printed.
package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu      sync.RWMutex
	verbose bool
	format            = FormatConsole
	output  io.Writer = os.Stderr
	sugar             = build(false, FormatConsole, os.Stderr)
)

// build creates a sugared logger writing to w.
func build(v bool, f string, w io.Writer) *zap.SugaredLogger {
	level := zapcore.WarnLevel
	if v {
		level = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	if f == FormatJSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey:       "msg",
			LevelKey:         "level",
			EncodeLevel:      bracketLevelEncoder,
			ConsoleSeparator: " ",
		})
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

// bracketLevelEncoder renders levels as "[DEBUG]", "[WARN]" and so on.
func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// rebuild replaces the logger (caller must hold lock).
func rebuild() {
	sugar = build(verbose, format, output)
}

// Init sets the output format. Unknown formats fall back to console.
func Init(f string) {
	mu.Lock()
	defer mu.Unlock()
	if f != FormatJSON {
		f = FormatConsole
	}
	format = f
	rebuild()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	rebuild()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// Debug prints a message if verbose mode is enabled.
func Debug(template string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Debugf(template, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Infof("=== %s ===", name)
}

// Info prints an informational message if verbose mode is enabled.
func Info(template string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Infof(template, args...)
}

// Infow prints a structured informational message if verbose mode is enabled.
func Infow(msg string, keysAndValues ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Infow(msg, keysAndValues...)
}

// Warn prints a warning message.
func Warn(template string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Warnf(template, args...)
}

// Error prints an error message.
func Error(template string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Errorf(template, args...)
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = sugar.Sync() //nolint:errcheck // stderr sync fails on some platforms
}
