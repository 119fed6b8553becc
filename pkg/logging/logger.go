package logging

import (
	"io"

	"github.com/sirupsen/logrus"

	"socialguard/pkg/config"
)

// Logger is the process-wide structured logger handle.
type Logger = *logrus.Logger

// Fields represents structured logging fields
type Fields = logrus.Fields

// Entry is a logger with fields already attached.
type Entry = *logrus.Entry

// Level represents a log level
type Level = logrus.Level

// Log levels
const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// NewLogger creates a JSON logger at the level named by LOG_LEVEL.
func NewLogger() Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// NewLoggerWithService creates a logger that stamps every entry with the
// given service name.
func NewLoggerWithService(serviceName string) Logger {
	logger := NewLogger()
	logger.AddHook(&serviceHook{service: serviceName})
	return logger
}

// NewDiscardLogger returns a logger that drops everything. Used by tests
// and by components constructed without a logger.
func NewDiscardLogger() Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type serviceHook struct {
	service string
}

func (h *serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["service"]; !ok {
		entry.Data["service"] = h.service
	}
	return nil
}
