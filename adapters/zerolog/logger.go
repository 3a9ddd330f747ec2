// Package zerologadapter implements the go-crypta logger contract on top of
// github.com/rs/zerolog.
package zerologadapter

import (
	"io"
	"os"

	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/rs/zerolog"
)

// Logger forwards structured fields to a zerolog.Logger.
type Logger struct {
	zl zerolog.Logger
}

var _ logger.Logger = (*Logger)(nil)

// New wraps an existing zerolog logger.
func New(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// NewConsole builds a human readable logger writing to w (stderr when nil).
func NewConsole(w io.Writer, level zerolog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: w}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return New(zl)
}

func (l *Logger) With(fields ...logger.Field) logger.Logger {
	if len(fields) == 0 {
		return l
	}
	ctx := l.zl.With()
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			ctx = ctx.AnErr(f.Key, err)
			continue
		}
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug(msg string, fields ...logger.Field) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...logger.Field)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...logger.Field)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...logger.Field) { emit(l.zl.Error(), msg, fields) }

func emit(evt *zerolog.Event, msg string, fields []logger.Field) {
	if evt == nil {
		return
	}
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			evt = evt.AnErr(f.Key, err)
			continue
		}
		evt = evt.Interface(f.Key, f.Value)
	}
	evt.Msg(msg)
}
