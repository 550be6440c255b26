package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Interface is the structured logger injected into use cases, stores and
// handlers. The w-suffixed methods take alternating keys and values.
type Interface interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Interface
	Named(name string) Interface

	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

type slogAdapter struct {
	logger *slog.Logger
}

func NewLogger() Interface {
	return &slogAdapter{logger: Get()}
}

// Wrap adapts an existing slog logger.
func Wrap(l *slog.Logger) Interface {
	return &slogAdapter{logger: l}
}

// NewNopLogger discards everything. Used by tests and one-shot CLI commands.
func NewNopLogger() Interface {
	return &slogAdapter{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *slogAdapter) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *slogAdapter) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *slogAdapter) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *slogAdapter) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }
func (l *slogAdapter) Debugw(msg string, keysAndValues ...any) {
	l.log(slog.LevelDebug, msg, keysAndValues)
}
func (l *slogAdapter) Infow(msg string, keysAndValues ...any) {
	l.log(slog.LevelInfo, msg, keysAndValues)
}
func (l *slogAdapter) Warnw(msg string, keysAndValues ...any) {
	l.log(slog.LevelWarn, msg, keysAndValues)
}
func (l *slogAdapter) Errorw(msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, keysAndValues)
}

func (l *slogAdapter) With(args ...any) Interface {
	return &slogAdapter{logger: l.logger.With(args...)}
}

func (l *slogAdapter) Named(name string) Interface {
	return &slogAdapter{logger: l.logger.With("logger", name)}
}

// log records the caller of the exported method as the source, not the
// adapter itself.
func (l *slogAdapter) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}
