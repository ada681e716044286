// Package logger wraps zerolog behind the small action-oriented API the
// services share: one JSON line per event, tagged with the service name.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl zerolog.Logger
}

// New returns a service-scoped logger writing JSON to stdout.
func New(service string) *Logger {
	return NewWithWriter(service, os.Stdout)
}

// NewWithWriter is New with an explicit sink, used by tests.
func NewWithWriter(service string, w io.Writer) *Logger {
	host, _ := os.Hostname()
	zl := zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Str("hostname", host).
		Logger()
	return &Logger{zl: zl}
}

func (l *Logger) Info(action string, fields map[string]any) {
	l.zl.Info().Fields(fields).Msg(action)
}

func (l *Logger) Debug(action string, fields map[string]any) {
	l.zl.Debug().Fields(fields).Msg(action)
}

func (l *Logger) Warn(action string, fields map[string]any) {
	l.zl.Warn().Fields(fields).Msg(action)
}

func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.zl.Error().Err(err).Fields(fields).Msg(action)
}
