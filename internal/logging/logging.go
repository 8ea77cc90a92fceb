// Package logging provides the file-backed structured logger used
// across the tool. Logging is off unless a path is configured.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap with the open/close lifecycle the CLI needs.
type Logger struct {
	zap *zap.Logger
}

// New creates a Logger appending JSON lines to the file at path. An
// empty path disables logging entirely. Development mode switches to
// the human-readable encoder config.
func New(path string, development bool) (*Logger, error) {
	if path == "" {
		return &Logger{zap: zap.NewNop()}, nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	var encoderConfig zapcore.EncoderConfig
	if development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(file),
		zapcore.InfoLevel,
	)
	return &Logger{zap: zap.New(core)}, nil
}

// Zap exposes the underlying logger for packages that take one.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Close syncs buffered entries; call on shutdown.
func (l *Logger) Close() error {
	return l.zap.Sync()
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Error logs an error with its message.
func (l *Logger) Error(msg string, err error) {
	l.zap.Error(msg, zap.Error(err))
}
