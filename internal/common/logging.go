// Package common provides shared utilities for stocktracker
package common

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger to provide a consistent interface
type Logger struct {
	zerolog.Logger
	closer io.Closer
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the specified level
func NewLogger(level string) *Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return NewLoggerWithOutput(level, output)
}

// NewLoggerWithOutput creates a logger writing to a specific output
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	logger := zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger}
}

// NewLoggerFromConfig builds a logger for the configured outputs. A log file
// that cannot be opened is skipped so a read-only working directory never
// stops the CLI.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	var writers []io.Writer
	var file *os.File
	for _, out := range cfg.Outputs {
		switch out {
		case "console":
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		case "file":
			if cfg.FilePath == "" {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
				continue
			}
			f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				continue
			}
			file = f
			writers = append(writers, f)
		}
	}

	var logger *Logger
	switch len(writers) {
	case 0:
		return NewSilentLogger()
	case 1:
		logger = NewLoggerWithOutput(cfg.Level, writers[0])
	default:
		logger = NewLoggerWithOutput(cfg.Level, zerolog.MultiLevelWriter(writers...))
	}
	if file != nil {
		logger.closer = file
	}
	return logger
}

// Close releases the log file opened by NewLoggerFromConfig. Safe to call
// more than once and on loggers that own no file.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	c := l.closer
	l.closer = nil
	return c.Close()
}

// NewSilentLogger creates a logger that discards all output
func NewSilentLogger() *Logger {
	logger := zerolog.New(io.Discard)
	return &Logger{Logger: logger}
}
