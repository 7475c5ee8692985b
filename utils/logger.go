package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger provides leveled logging throughout the application.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a Logger writing human-readable output to stdout.
// The level is taken from LOG_LEVEL and defaults to info.
func NewLogger() *Logger {
	return NewLoggerWithWriter(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}, levelFromEnv())
}

// NewLoggerWithWriter creates a Logger writing to w at the given level.
func NewLoggerWithWriter(w io.Writer, level zerolog.Level) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func levelFromEnv() zerolog.Level {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func (l *Logger) Info(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}

// DebugEnabled reports whether debug messages will be written.
func (l *Logger) DebugEnabled() bool {
	return l.zl.GetLevel() <= zerolog.DebugLevel
}
