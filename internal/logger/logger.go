// Package logger provides tagged console logging on top of zap.
//
// Every line carries a short component tag ("ESI", "LOOP", "DB") so that the
// interleaved output of the loader, the scanners and the sinks stays readable.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base = newConsole(zapcore.InfoLevel, false)
)

func newConsole(level zapcore.Level, json bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var enc zapcore.Encoder
	if json {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), zap.NewAtomicLevelAt(level))
	return zap.New(core)
}

// Init replaces the global logger. level is one of debug, info, warn, error.
func Init(level string, json bool) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	l := newConsole(lvl, json)

	mu.Lock()
	old := base
	base = l
	mu.Unlock()
	_ = old.Sync()
	return nil
}

// L returns the underlying zap logger for callers that want structured fields.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered log entries.
func Sync() {
	_ = L().Sync()
}

func tagged(tag string) *zap.Logger {
	return L().With(zap.String("component", tag))
}

// Debug logs a low-priority message, hidden at the default level.
func Debug(tag, msg string) {
	tagged(tag).Debug(msg)
}

// Info logs an informational message.
func Info(tag, msg string) {
	tagged(tag).Info(msg)
}

// Success logs a completed step. It is an info entry marked with ok=true.
func Success(tag, msg string) {
	tagged(tag).Info(msg, zap.Bool("ok", true))
}

// Warn logs a degraded but recoverable condition.
func Warn(tag, msg string) {
	tagged(tag).Warn(msg)
}

// Error logs a failure.
func Error(tag, msg string) {
	tagged(tag).Error(msg)
}

// Section prints a visual separator with a title.
func Section(title string) {
	L().Info("── " + title + " ──")
}

// Stats logs a single key/value statistic.
func Stats(key string, value interface{}) {
	L().Info("stat", zap.String("key", key), zap.Any("value", value))
}

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	L().Info("EVE arbitrage scanner", zap.String("version", version))
}

// Server logs the address a listener is bound to.
func Server(addr string) {
	L().Info("listening", zap.String("component", "HTTP"), zap.String("addr", addr))
}
