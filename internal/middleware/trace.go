package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type traceKey string

const ctxTraceID traceKey = "trace_id"

const TraceHeader = "X-Trace-Id"

// Trace injects a trace id into every request context and response header.
// A client supplied X-Trace-Id is kept.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := strings.TrimSpace(r.Header.Get(TraceHeader))
		if traceID == "" {
			traceID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), ctxTraceID, traceID)
		w.Header().Set(TraceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TraceIDFromCtx extracts the trace id from context.
func TraceIDFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(ctxTraceID).(string)
	return v
}
