// Package logging owns the process-wide slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

var (
	level   = new(slog.LevelVar)
	current atomic.Pointer[slog.Handler]
	logger  = slog.New(&swapHandler{})
)

func init() {
	SetOutput(os.Stderr)
}

func newHandler(w io.Writer) slog.Handler {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !term.IsTerminal(int(f.Fd()))
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
}

// Logger returns the process logger. Loggers derived from it follow later
// SetOutput calls.
func Logger() *slog.Logger {
	return logger
}

// SetLevel changes the minimum level of the process logger.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutput redirects the process logger to w, including loggers that were
// handed out before the call.
func SetOutput(w io.Writer) {
	h := newHandler(w)
	current.Store(&h)
}

// swapHandler forwards to the current output handler, replaying the attrs
// and groups it was derived with.
type swapHandler struct {
	derive []func(slog.Handler) slog.Handler
}

func (s *swapHandler) inner() slog.Handler {
	h := *current.Load()
	for _, d := range s.derive {
		h = d(h)
	}
	return h
}

func (s *swapHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= level.Level()
}

func (s *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.inner().Handle(ctx, r)
}

func (s *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return s.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (s *swapHandler) WithGroup(name string) slog.Handler {
	return s.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (s *swapHandler) with(d func(slog.Handler) slog.Handler) slog.Handler {
	derive := make([]func(slog.Handler) slog.Handler, len(s.derive), len(s.derive)+1)
	copy(derive, s.derive)
	return &swapHandler{derive: append(derive, d)}
}
