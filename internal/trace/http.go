package trace

import "net/http"

// Middleware attaches a trace context to every request, continuing the
// caller's trace when it sends x-trace-id, and echoes the id back.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := Context{
			TraceID:      r.Header.Get(TraceIDKey),
			ParentSpanID: r.Header.Get(SpanIDKey),
			SpanID:       newSpanID(),
		}
		if tc.TraceID == "" {
			tc.TraceID = newTraceID()
		}
		w.Header().Set(TraceIDKey, tc.TraceID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
	})
}
