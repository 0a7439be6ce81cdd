package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/udtalk/push-backend/internal/logging"
)

type traceKey struct{}

//WithTraceID Middleware assigning every request a trace id, exposed in the
//X-Trace-Id header and attached to the request context and logger.
func WithTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := uuid.New().String()

		ctx := context.WithValue(r.Context(), traceKey{}, traceID)
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("traceId", traceID))

		w.Header().Set("X-Trace-Id", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

//TraceID Extracts the trace id from the context, empty when there is none.
func TraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceKey{}).(string); ok {
		return traceID
	}
	return ""
}

//WithRequestTimeout Middleware bounding the whole request by one deadline.
//In-flight store and push calls observe the cancellation through the request
//context and surface it as a timeout failure at their own call site.
func WithRequestTimeout(timeout time.Duration, next http.Handler) http.Handler {
	if timeout <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
