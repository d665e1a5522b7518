// Package logger provides a small, centralized logging facade with
// configurable verbosity, backed by logrus.
//
// Verbosity levels (in increasing order):
//
//	Error < Warn < Info < Debug < Trace
//
// Numeric verbosity (as used on the command line) maps 0=Error, 1=Info,
// 2=Debug, 3=Trace.
//
// Example usage:
//
//	logger.SetLevel("debug")
//	logger.Infof("pricing %d contracts", n)
//	logger.WithFields(logger.Fields{"model": "crr"}).Debug("quote done")
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level represents a logging verbosity level.
type Level int

const (
	Error Level = iota // Error logs only failures.
	Info               // Info logs high-level progress.
	Debug              // Debug logs per-request diagnostics.
	Trace              // Trace logs lattice internals; very noisy.
)

// Fields is an alias so callers need not import logrus.
type Fields = logrus.Fields

var std = newStd()

func newStd() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbosity sets the level from a numeric verbosity. Values beyond Trace
// are treated as Trace, negative values as Error.
func SetVerbosity(v int) {
	switch Level(v) {
	case Error:
		std.SetLevel(logrus.ErrorLevel)
	case Info:
		std.SetLevel(logrus.InfoLevel)
	case Debug:
		std.SetLevel(logrus.DebugLevel)
	default:
		if v < 0 {
			std.SetLevel(logrus.ErrorLevel)
			return
		}
		std.SetLevel(logrus.TraceLevel)
	}
}

// SetLevel sets the level by name ("error", "warn", "info", "debug", "trace").
// An empty name leaves the level unchanged.
func SetLevel(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	std.SetLevel(lvl)
	return nil
}

// GetLevel returns the active level name.
func GetLevel() string {
	return std.GetLevel().String()
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Enabled reports whether messages at the named level would be written.
func Enabled(name string) bool {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return false
	}
	return std.IsLevelEnabled(lvl)
}

// WithFields starts a structured entry.
func WithFields(fields Fields) *logrus.Entry {
	return std.WithFields(fields)
}

func Errorf(format string, args ...any) {
	std.Errorf(format, args...)
}

func Warnf(format string, args ...any) {
	std.Warnf(format, args...)
}

func Infof(format string, args ...any) {
	std.Infof(format, args...)
}

func Debugf(format string, args ...any) {
	std.Debugf(format, args...)
}

// Tracef logs very detailed execution traces. Use sparingly.
func Tracef(format string, args ...any) {
	std.Tracef(format, args...)
}
