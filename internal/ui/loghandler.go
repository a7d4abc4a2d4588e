package ui

import (
	"context"
	"errors"
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"

	"github.com/bamsammich/ferry/internal/event"
)

// MultiHandler fans records out to several handlers. A record is passed to
// each handler that is enabled for its level.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler combines handlers.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Enabled reports whether any handler accepts level.
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: hs}
}

// NewConsoleHandler returns the stderr handler: charm's colored logger on a
// terminal, plain key=value text otherwise.
func NewConsoleHandler(w io.Writer, level slog.Level, tty bool) slog.Handler {
	if tty {
		return charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			Level:           charmlog.Level(level),
		})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// ParseLevel maps a config or flag level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(name))
	return l, err
}

// LogEvent writes ev as a structured "ferry.event" record.
func LogEvent(ctx context.Context, logger *slog.Logger, ev event.Event) {
	attrs := []slog.Attr{
		slog.String("type", ev.Type.String()),
		slog.String("op", ev.Op),
		slog.String("id", ev.ID),
		slog.String("path", ev.Path),
		slog.String("target", ev.Target),
	}
	if ev.Kind != "" {
		attrs = append(attrs, slog.String("kind", ev.Kind))
	}
	if ev.Method != "" {
		attrs = append(attrs, slog.String("method", ev.Method))
	}
	if ev.Size > 0 {
		attrs = append(attrs, slog.Int64("size", ev.Size))
	}
	level := slog.LevelInfo
	if ev.Error != nil {
		attrs = append(attrs, slog.String("error", ev.Error.Error()))
		if ev.Type == event.OpFailed || ev.Type == event.VerifyFailed {
			level = slog.LevelWarn
		}
	}
	logger.LogAttrs(ctx, level, "ferry.event", attrs...)
}
