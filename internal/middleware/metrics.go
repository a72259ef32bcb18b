package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gourl/idforge/internal/metrics"
)

// Metrics returns a middleware that records Prometheus metrics.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := newStatusRecorder(w)

			metrics.ActiveConnections.Inc()
			defer metrics.ActiveConnections.Dec()

			next.ServeHTTP(sr, r)

			metrics.RecordRequest(r.Method, normalizePath(r.URL.Path), sr.status, time.Since(start))
		})
	}
}

// normalizePath maps request paths onto route templates so that label
// cardinality stays bounded.
func normalizePath(path string) string {
	switch path {
	case "/health", "/ready", "/metrics", "/docs", "/docs/openapi.yaml",
		"/api/v1/formats", "/api/v1/ids", "/api/v1/stats":
		return path
	}

	if format, ok := strings.CutPrefix(path, "/api/v1/stats/"); ok {
		if format == "" || strings.Contains(format, "/") {
			return "/other"
		}
		return "/api/v1/stats/{format}"
	}

	rest, ok := strings.CutPrefix(path, "/api/v1/ids/")
	if !ok || rest == "" {
		return "/other"
	}

	format, tail, nested := strings.Cut(rest, "/")
	switch {
	case format == "":
		return "/other"
	case !nested:
		return "/api/v1/ids/{format}"
	case tail == "inspect":
		return "/api/v1/ids/{format}/inspect"
	default:
		return "/other"
	}
}
