// Package logger provides the single structured-logging entry point
// used across the pipeline stages, retrievers and transport clients.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents log severity levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu      sync.RWMutex
	atomLvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base    = mustBuild()
)

func mustBuild() *zap.Logger {
	cfg := zap.Config{
		Level:            atomLvl,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func sugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sugar()
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) { sugar().Debugf(format, args...) }

// Infof logs an info message.
func Infof(format string, args ...interface{}) { sugar().Infof(format, args...) }

// Warnf logs a warning message.
func Warnf(format string, args ...interface{}) { sugar().Warnf(format, args...) }

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) { sugar().Errorf(format, args...) }

// SetLevel sets the minimum log level emitted by the logger.
func SetLevel(level LogLevel) {
	switch level {
	case LevelDebug:
		atomLvl.SetLevel(zapcore.DebugLevel)
	case LevelInfo:
		atomLvl.SetLevel(zapcore.InfoLevel)
	case LevelWarn:
		atomLvl.SetLevel(zapcore.WarnLevel)
	case LevelError:
		atomLvl.SetLevel(zapcore.ErrorLevel)
	}
}

// Sync flushes any buffered log entries; call before process exit.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

// ContextLogger carries structured key/value fields across a request's
// pipeline stages (query id, session id, profile name, ...).
type ContextLogger struct {
	fields []interface{}
}

// WithContext creates a logger with the given context fields attached
// to every subsequent log line.
func WithContext(context map[string]interface{}) *ContextLogger {
	fields := make([]interface{}, 0, len(context)*2)
	for k, v := range context {
		fields = append(fields, k, v)
	}
	return &ContextLogger{fields: fields}
}

func (c *ContextLogger) sugar() *zap.SugaredLogger { return sugar().With(c.fields...) }

func (c *ContextLogger) Debugf(format string, args ...interface{}) { c.sugar().Debugf(format, args...) }
func (c *ContextLogger) Infof(format string, args ...interface{})  { c.sugar().Infof(format, args...) }
func (c *ContextLogger) Warnf(format string, args ...interface{})  { c.sugar().Warnf(format, args...) }
func (c *ContextLogger) Errorf(format string, args ...interface{}) { c.sugar().Errorf(format, args...) }
