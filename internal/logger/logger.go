// Package logger provides levelled logging for the ggbackup CLI.
// Warnings and errors are always printed; -v adds informational
// messages and --debug adds per-request detail.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Level mirrors the CLI verbosity switches.
type Level int

const (
	// LevelWarn prints warnings and errors only (default).
	LevelWarn Level = iota
	// LevelInfo adds progress messages (-v).
	LevelInfo
	// LevelDebug adds per-page and per-batch detail (--debug).
	LevelDebug
)

var log = newLogger(os.Stderr)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})
	return l
}

// SetLevel sets the minimum level that is printed.
func SetLevel(level Level) {
	switch level {
	case LevelDebug:
		log.SetLevel(logrus.DebugLevel)
	case LevelInfo:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}
}

// IsDebug returns true if debug output is enabled.
func IsDebug() bool {
	return log.IsLevelEnabled(logrus.DebugLevel)
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Debug prints a message if debug mode is enabled.
func Debug(format string, args ...any) {
	log.Debugf(format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	log.Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	log.Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	log.Errorf(format, args...)
}

// WithField returns an entry carrying a structured field, e.g. the group
// being processed.
func WithField(key string, value any) *logrus.Entry {
	return log.WithField(key, value)
}
