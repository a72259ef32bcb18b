package middleware

import (
	"net/http"
	"time"

	"github.com/gourl/idforge/pkg/logger"
)

// Logging attaches a request-scoped logger to the context and writes one
// access log line per request. It must run after RequestID and ClientIP.
func Logging(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := log.With(
				"request_id", GetRequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", GetClientIP(r.Context()),
			)
			sr := newStatusRecorder(w)

			next.ServeHTTP(sr, r.WithContext(logger.WithContext(r.Context(), reqLog)))

			fields := []interface{}{
				"status", sr.status,
				"bytes", sr.bytes,
				"latency_ms", float64(time.Since(start).Microseconds()) / 1000,
			}
			switch {
			case sr.status >= http.StatusInternalServerError:
				reqLog.Error("request completed", fields...)
			case sr.status >= http.StatusBadRequest:
				reqLog.Warn("request completed", fields...)
			default:
				reqLog.Info("request completed", fields...)
			}
		})
	}
}
