package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with key/value convenience methods:
//
//	log.Info("forecast finished", "method", "drift", "duration", d)
//
// A value under the "error" key is logged as its Error() string.
type Logger struct {
	zl     zerolog.Logger
	fields []interface{} // bound by With, applied on every event
}

var global = NewDevelopment()

// NewDevelopment creates a development logger with pretty console output
func NewDevelopment() *Logger {
	return NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, zerolog.DebugLevel)
}

// NewWithWriter creates a logger with custom writer
func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// SetGlobal sets the global logger instance
func SetGlobal(logger *Logger) {
	global = logger
}

// Global returns the global logger instance
func Global() *Logger {
	return global
}

func (l *Logger) emit(e *zerolog.Event, msg string, kv []interface{}) {
	if e == nil {
		return
	}
	appendFields(e, l.fields)
	appendFields(e, kv)
	e.Msg(msg)
}

func appendFields(e *zerolog.Event, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		switch v := kv[i+1].(type) {
		case error:
			e.AnErr(key, v)
		case time.Duration:
			e.Dur(key, v)
		default:
			e.Interface(key, v)
		}
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, kv ...interface{}) { l.emit(l.zl.Debug(), msg, kv) }

// Info logs an info message
func (l *Logger) Info(msg string, kv ...interface{}) { l.emit(l.zl.Info(), msg, kv) }

// Warn logs a warning message
func (l *Logger) Warn(msg string, kv ...interface{}) { l.emit(l.zl.Warn(), msg, kv) }

// Error logs an error message
func (l *Logger) Error(msg string, kv ...interface{}) { l.emit(l.zl.Error(), msg, kv) }

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, kv ...interface{}) { l.emit(l.zl.Fatal(), msg, kv) }

// With creates a child logger with additional fields
func (l *Logger) With(kv ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(kv))
	fields = append(fields, l.fields...)
	fields = append(fields, kv...)
	return &Logger{zl: l.zl, fields: fields}
}

// WithContext returns a logger carrying the request id from ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := RequestID(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}
