// Package logging provides the shared file logger for Umbrasol. Log lines
// are appended to logs/umbrasol.log, level-tagged. The logger is initialized
// once at startup; before Init the package falls back to a no-op logger so
// library code never has to nil-check.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
	sugar  = logger.Sugar()
)

// Init opens (or creates) the log file and installs the global logger.
// When console is true, log lines are mirrored to stderr.
func Init(logFile, level string, console bool) error {
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(encCfg)

	lvl := parseLevel(level)
	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.AddSync(f), lvl),
	}
	if console {
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), lvl))
	}

	l := zap.New(zapcore.NewTee(cores...))

	mu.Lock()
	logger = l
	sugar = l.Sugar()
	mu.Unlock()
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// L returns the structured logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// S returns the sugared logger.
func S() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Sync flushes buffered log entries. Safe to call on shutdown paths.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = logger.Sync()
}

// Convenience helpers used throughout the codebase.

func Debugf(format string, args ...interface{}) { S().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { S().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { S().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { S().Errorf(format, args...) }
