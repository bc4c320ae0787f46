// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the diagnostic logger. Operator-facing progress is
// written by each stage to its own io.Writer; this logger carries request
// URLs, retries and dropped records for troubleshooting.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "warn"

// New creates a text logger writing to stderr at the given level. Unknown
// level strings fall back to DefaultLevel.
func New(level string) *logrus.Logger {
	return NewWithOutput(level, os.Stderr)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(level string, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		TimestampFormat:  "15:04:05",
		QuoteEmptyFields: true,
	})
	log.SetLevel(ParseLevel(level))
	return log
}

// ParseLevel maps a case-insensitive level name to a logrus level.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}

// ForRun returns an entry tagged with a fresh run_id so every diagnostic of
// one invocation can be grepped together.
func ForRun(log *logrus.Logger) *logrus.Entry {
	return log.WithField("run_id", uuid.NewString())
}

// Discard returns a logger that drops everything. Components use it when
// no logger is injected.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
