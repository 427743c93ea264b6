// Package tracing records per-request span trees for the query path. The
// trace id is the request id, so a slow query can be found from its access
// log line. Trees are logged at debug level when the root span finishes.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/logger"
	"github.com/google/uuid"
)

type spanKey struct{}

// Span is one timed step. Children are appended concurrently-safe; End is
// called once by the goroutine that started the span.
type Span struct {
	Name     string
	TraceID  string
	Start    time.Time
	Duration time.Duration

	mu       sync.Mutex
	parent   *Span
	attrs    []any
	children []*Span
}

// Start opens a span under the span in ctx, or a new root whose trace id is
// the request id (a fresh uuid when there is none).
func Start(ctx context.Context, name string) (context.Context, *Span) {
	s := &Span{Name: name, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		s.parent = parent
		s.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, s)
		parent.mu.Unlock()
	} else if id := logger.RequestID(ctx); id != "" {
		s.TraceID = id
	} else {
		s.TraceID = uuid.NewString()
	}
	return context.WithValue(ctx, spanKey{}, s), s
}

// FromContext returns the innermost open span, or nil.
func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// SetAttr attaches a key/value pair logged with the span.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, key, value)
	s.mu.Unlock()
}

// End stops the clock. Ending a root span logs the whole tree.
func (s *Span) End() {
	s.Duration = time.Since(s.Start)
	if s.parent == nil {
		s.log(slog.Default(), 0)
	}
}

// Children returns a snapshot of the span's direct children.
func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

func (s *Span) log(l *slog.Logger, depth int) {
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	s.mu.Lock()
	attrs := append([]any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_ms", s.Duration.Milliseconds(),
		"depth", depth,
	}, s.attrs...)
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()

	l.Debug("span", attrs...)
	for _, c := range children {
		c.log(l, depth+1)
	}
}
