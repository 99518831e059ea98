// Package trace tags log records with a trace id and per-operation span ids
// so one detection, API request or remote OCR call can be followed in logs.
package trace

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Header and metadata keys used to propagate ids.
const (
	TraceIDKey = "x-trace-id"
	SpanIDKey  = "x-span-id"
)

type ctxKey struct{}

// Context holds the identifiers of the current span.
type Context struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
}

// New starts a fresh trace.
func New() Context {
	return Context{TraceID: newTraceID(), SpanID: newSpanID()}
}

// Child derives a span of the same trace.
func (c Context) Child() Context {
	if c.TraceID == "" {
		return New()
	}
	return Context{TraceID: c.TraceID, SpanID: newSpanID(), ParentSpanID: c.SpanID}
}

// FromContext extracts the trace context.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// WithContext stores tc in ctx.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// 128-bit trace id, hex without dashes.
func newTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// 64-bit span id.
func newSpanID() string {
	return newTraceID()[:16]
}

// Span is a timed operation. End logs it at debug level.
type Span struct {
	Name  string
	Ctx   Context
	Start time.Time
	attrs []slog.Attr
}

// StartSpan begins a child span of whatever trace ctx carries.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent, _ := FromContext(ctx)
	s := &Span{Name: name, Ctx: parent.Child(), Start: time.Now()}
	return WithContext(ctx, s.Ctx), s
}

// SetAttr attaches a value reported when the span ends.
func (s *Span) SetAttr(key string, val any) {
	s.attrs = append(s.attrs, slog.Any(key, val))
}

// End logs the span with its duration.
func (s *Span) End() {
	slog.Debug("span", "span", s)
}

// LogValue implements slog.LogValuer.
func (s *Span) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("name", s.Name),
		slog.String("trace_id", s.Ctx.TraceID),
		slog.String("span_id", s.Ctx.SpanID),
		slog.Duration("duration", time.Since(s.Start)),
	}
	if s.Ctx.ParentSpanID != "" {
		attrs = append(attrs, slog.String("parent_span_id", s.Ctx.ParentSpanID))
	}
	return slog.GroupValue(append(attrs, s.attrs...)...)
}

// Logger returns the default logger annotated with ctx's trace ids.
func Logger(ctx context.Context) *slog.Logger {
	tc, ok := FromContext(ctx)
	if !ok {
		return slog.Default()
	}
	return slog.Default().With("trace_id", tc.TraceID, "span_id", tc.SpanID)
}
