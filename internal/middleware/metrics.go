package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder is implemented by metrics.Collector.
type RequestRecorder interface {
	RecordRequest(method, route string, status int, d time.Duration)
}

// Metrics records every request under its chi route pattern. The pattern
// is read after the handler runs, once routing has completed.
func Metrics(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			recorder.RecordRequest(r.Method, routePattern(r), wrapped.statusCode, time.Since(start))
		})
	}
}
