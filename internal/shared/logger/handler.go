package logger

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
)

const redacted = "[redacted]"

// sensitiveKeys are attribute names whose values are credentials. Matching
// ignores case so "ID_Token" and "id_token" are treated alike.
var sensitiveKeys = map[string]bool{
	"access_token":   true,
	"refresh_token":  true,
	"id_token":       true,
	"channel_secret": true,
	"session_token":  true,
	"code":           true,
	"code_verifier":  true,
	"password":       true,
}

// brokerHandler masks credential attributes before they reach the sink and
// adds the call site for the configured levels. The wrapped handler must
// have AddSource disabled.
type brokerHandler struct {
	next        slog.Handler
	sourceLevel map[slog.Level]bool
}

func newBrokerHandler(next slog.Handler, sourceLevels ...slog.Level) slog.Handler {
	levels := make(map[slog.Level]bool, len(sourceLevels))
	for _, level := range sourceLevels {
		levels[level] = true
	}
	return &brokerHandler{next: next, sourceLevel: levels}
}

func (h *brokerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *brokerHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})

	if h.sourceLevel[r.Level] && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		out.AddAttrs(slog.Any(slog.SourceKey, &slog.Source{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		}))
	}
	return h.next.Handle(ctx, out)
}

func (h *brokerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redactAttr(a)
	}
	return &brokerHandler{next: h.next.WithAttrs(clean), sourceLevel: h.sourceLevel}
}

func (h *brokerHandler) WithGroup(name string) slog.Handler {
	return &brokerHandler{next: h.next.WithGroup(name), sourceLevel: h.sourceLevel}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]any, len(group))
		for i, inner := range group {
			clean[i] = redactAttr(inner)
		}
		return slog.Group(a.Key, clean...)
	}
	if sensitiveKeys[strings.ToLower(a.Key)] && !isEmpty(a.Value) {
		return slog.String(a.Key, redacted)
	}
	return a
}

func isEmpty(v slog.Value) bool {
	return v.Kind() == slog.KindString && v.String() == ""
}
