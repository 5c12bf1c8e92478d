// Package logger wraps logrus so callers depend on a stable surface instead
// of the logging library directly.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger
type Entry = logrus.Entry
type Fields = logrus.Fields

var root = logrus.StandardLogger()

// Configure sets the global format and level. Level accepts logrus level
// names ("debug", "info", ...); unknown values fall back to info.
func Configure(level string) {
	root.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	root.SetLevel(lvl)
}

// SetOutput redirects the global logger, e.g. to a file or io.Discard in tests.
func SetOutput(w io.Writer) {
	root.SetOutput(w)
}

// SetupFile redirects global output to the given path, creating it if needed.
func SetupFile(path string) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	root.SetOutput(f)
	return f, nil
}

// Named returns an entry tagged with a component field.
func Named(component string) *Entry {
	entry := logrus.NewEntry(root)
	if component != "" {
		entry = entry.WithField("component", component)
	}
	return entry
}
