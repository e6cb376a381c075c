// Package logging configures the structured logger shared by the harness and
// provides step logging for scaffold helpers.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to w at the given level. Unknown levels fall
// back to info with a warning. format is "text" (default) or "json".
func New(level, format string, w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}

	log := logrus.New()
	log.SetOutput(w)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
			DisableQuote:     true,
		})
	}

	log.SetLevel(logrus.InfoLevel)
	if level == "" {
		return log
	}

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info'", level)
		return log
	}
	log.SetLevel(parsed)
	return log
}

// Discard returns a logger that drops every entry
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Step logs the start of a named helper step and returns the entry so the
// caller can attach outcome fields.
func Step(log logrus.FieldLogger, name string, fields logrus.Fields) *logrus.Entry {
	entry := log.WithField("step", name)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Debug("step")
	return entry
}
