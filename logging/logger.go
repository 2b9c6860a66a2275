// Package logging holds the *slog.Logger used by pdfwrap and its engine.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

// discardHandler drops every record. It stands in for slog.DiscardHandler,
// which needs a newer Go than this module targets.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

func newDiscardLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

// SetLogger replaces the package logger. Passing nil restores the discard
// logger. SetLogger is safe for concurrent use.
//
// To see engine repairs and filter problems on stderr:
//
//	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
//		&slog.HandlerOptions{Level: slog.LevelDebug})))
func SetLogger(sl *slog.Logger) {
	if sl == nil {
		sl = newDiscardLogger()
	}
	logger.Store(sl)
}

// Logger returns the package logger, which discards everything until
// SetLogger is called.
func Logger() *slog.Logger {
	l := logger.Load()
	if l == nil {
		l = newDiscardLogger()
		if !logger.CompareAndSwap(nil, l) {
			l = logger.Load()
		}
	}
	return l
}

// Discards reports whether l drops all records.
func Discards(l *slog.Logger) bool {
	_, ok := l.Handler().(discardHandler)
	return ok
}
