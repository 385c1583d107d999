// Package logger provides the engine's structured logging: a logrus logger
// carrying the field conventions the engine emits with (image handle, event
// type, dotted path), so every image, replay, script and transaction line
// is filterable by the same keys.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Field names the engine logs under.
const (
	FieldImage    = "image"
	FieldEvent    = "event"
	FieldPath     = "path"
	FieldEvents   = "events"
	FieldEntries  = "entries"
	FieldDuration = "duration_ms"
)

// Config contains logging configuration.
type Config struct {
	Level  string
	Format string
	// Output defaults to stdout.
	Output io.Writer
}

// Logger is a wrapper around logrus.Logger with the engine's field
// conventions.
type Logger struct {
	*logrus.Logger
}

// New creates a logger from configuration.
func New(cfg Config) *Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if cfg.Output != nil {
		logger.SetOutput(cfg.Output)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return &Logger{Logger: logger}
}

// Nop creates a logger that discards everything; the engine uses it when no
// logger is configured.
func Nop() *Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Logger{Logger: logger}
}

// WithImage returns an entry tagged with an image handle.
func (l *Logger) WithImage(id string) *logrus.Entry {
	return l.Logger.WithField(FieldImage, id)
}

// EventAppended records one event reaching the log.
func (l *Logger) EventAppended(imageID, eventType string, path []string) {
	l.WithImage(imageID).WithFields(logrus.Fields{
		FieldEvent: eventType,
		FieldPath:  strings.Join(path, "."),
	}).Debug("event appended")
}

// ReplayFinished records a completed (or aborted) replay.
func (l *Logger) ReplayFinished(imageID string, applied int, d time.Duration) {
	l.WithImage(imageID).WithFields(logrus.Fields{
		FieldEvents:   applied,
		FieldDuration: d.Milliseconds(),
	}).Debug("replay finished")
}

// ScriptExecuted records a script run against an image.
func (l *Logger) ScriptExecuted(imageID string, err error) {
	entry := l.WithImage(imageID)
	if err != nil {
		entry.WithError(err).Warn("script failed")
		return
	}
	entry.Debug("script executed")
}

// TransactionSaved records a transaction flush.
func (l *Logger) TransactionSaved(entries int, err error) {
	entry := l.Logger.WithField(FieldEntries, entries)
	if err != nil {
		entry.WithError(err).Error("transaction save failed")
		return
	}
	entry.Debug("transaction saved")
}
