// Package logger configures the process-wide slog logger and carries request
// scoped attributes through a context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type contextKey struct{}

// scope is what a context carries: the request id plus any attributes added
// along the way with With.
type scope struct {
	requestID string
	attrs     []any
}

func fromCtx(ctx context.Context) scope {
	s, _ := ctx.Value(contextKey{}).(scope)
	return s
}

// Setup installs the default logger writing to stdout.
func Setup(level string, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger for level ("debug", "info", "warn", "error") and
// format ("json" or "text"). Timestamps are UTC, matching comment dates.
func New(w io.Writer, level string, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.TimeValue(a.Value.Time().UTC().Truncate(time.Millisecond))
			}
			return a
		},
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	s := fromCtx(ctx)
	s.requestID = requestID
	return context.WithValue(ctx, contextKey{}, s)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	return fromCtx(ctx).requestID
}

// With returns a context whose FromContext logger also carries args.
func With(ctx context.Context, args ...any) context.Context {
	s := fromCtx(ctx)
	attrs := make([]any, 0, len(s.attrs)+len(args))
	attrs = append(attrs, s.attrs...)
	s.attrs = append(attrs, args...)
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the default logger annotated with the request id and
// attributes the context carries.
func FromContext(ctx context.Context) *slog.Logger {
	l := slog.Default()
	s := fromCtx(ctx)
	if s.requestID != "" {
		l = l.With("request_id", s.requestID)
	}
	if len(s.attrs) > 0 {
		l = l.With(s.attrs...)
	}
	return l
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		if strings.EqualFold(level, "warning") {
			return slog.LevelWarn
		}
		return slog.LevelInfo
	}
	return l
}
