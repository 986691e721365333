// Package logger contains [domain.Logger] implementations: a zerolog-backed
// logger and a no-op used when none is configured.
package logger

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/jGRUBBS/mongomodel/domain"
)

// Logger implements domain.Logger on top of zerolog.
type Logger struct {
	log zerolog.Logger
}

// NewLogger returns a domain.Logger writing structured events to w.
func NewLogger(w io.Writer) domain.Logger {
	return &Logger{log: zerolog.New(w).With().Timestamp().Logger()}
}

// Debug implements domain.Logger.
func (l *Logger) Debug(msg string, keyvals ...any) {
	emit(l.log.Debug(), msg, keyvals)
}

// Error implements domain.Logger.
func (l *Logger) Error(msg string, keyvals ...any) {
	emit(l.log.Error(), msg, keyvals)
}

func emit(e *zerolog.Event, msg string, keyvals []any) {
	for n := 0; n+1 < len(keyvals); n += 2 {
		key, ok := keyvals[n].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, keyvals[n+1])
	}
	e.Msg(msg)
}

// Noop implements domain.Logger by discarding every event.
type Noop struct{}

// NewNoop returns a domain.Logger that does nothing.
func NewNoop() domain.Logger {
	return Noop{}
}

// Debug implements domain.Logger.
func (Noop) Debug(string, ...any) {}

// Error implements domain.Logger.
func (Noop) Error(string, ...any) {}
