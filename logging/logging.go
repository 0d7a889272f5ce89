// Package logging carries this runtime's ambient structured-logging
// concern, wired the way eventloop/logging.go carries its own
// package-level structured logger as infrastructure: a thin, category-
// tagged wrapper over github.com/joeycumines/logiface, backed by
// github.com/rs/zerolog.
package logging

import (
	"os"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Category names the subsystem a log line originates from, mirroring the
// teacher's own tagging ("handle_scope", "reference", "tsfn", "async_work").
type Category string

const (
	CategoryHandleScope Category = "handle_scope"
	CategoryReference    Category = "reference"
	CategoryCallback     Category = "callback"
	CategoryTSFN         Category = "tsfn"
	CategoryAsyncWork    Category = "async_work"
	CategoryEnvironment  Category = "environment"
)

// Logger is the facade every component logs through. It is safe for
// concurrent use (logiface.Logger itself is), matching the requirement
// that TSFN/async-work worker threads may log without synchronizing with
// the host thread.
type Logger struct {
	base *logiface.Logger[*izerolog.Event]
}

// New builds a Logger writing to w (os.Stderr if nil) at the given minimum
// zerolog level.
func New(w *os.File, level zerolog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	zl := zerolog.New(w).With().Timestamp().Logger().Level(level)
	return &Logger{base: logiface.New[*izerolog.Event](izerolog.WithZerolog(zl))}
}

// Nop returns a Logger that discards everything, for tests and callers that
// don't want output.
func Nop() *Logger {
	zl := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return &Logger{base: logiface.New[*izerolog.Event](izerolog.WithZerolog(zl))}
}

// Debug starts a debug-level entry tagged with category.
func (l *Logger) Debug(category Category) *logiface.Builder[*izerolog.Event] {
	return l.base.Debug().Str("category", string(category))
}

// Warn starts a warning-level entry tagged with category.
func (l *Logger) Warn(category Category) *logiface.Builder[*izerolog.Event] {
	return l.base.Warning().Str("category", string(category))
}

// Err starts an error-level entry tagged with category.
func (l *Logger) Err(category Category, err error) *logiface.Builder[*izerolog.Event] {
	return l.base.Err().Str("category", string(category)).Err(err)
}

// Info starts an informational-level entry tagged with category.
func (l *Logger) Info(category Category) *logiface.Builder[*izerolog.Event] {
	return l.base.Info().Str("category", string(category))
}
