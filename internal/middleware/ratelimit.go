package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gourl/idforge/internal/metrics"
	"github.com/gourl/idforge/internal/ratelimit"
	"github.com/gourl/idforge/pkg/logger"
)

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	TrustProxy     bool     // Trust X-Forwarded-For header
	APIKeyHeader   string   // Header name for API key (e.g., "X-API-Key")
	APIKeys        []string // Keys that get their own budget; others are limited by IP
	TrustedProxies []string // List of trusted proxy IPs
	Logger         *logger.Logger
}

// RateLimitResponse is the JSON response for rate limited requests.
type RateLimitResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retry_after"`
}

// RateLimit rejects requests over the limiter's budget with 429. Limiter
// errors fail open.
func RateLimit(limiter ratelimit.Limiter, cfg RateLimitConfig) Middleware {
	policy := NewProxyPolicy(cfg.TrustProxy, cfg.TrustedProxies)
	keys := make(map[string]struct{}, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := rateLimitKey(r, cfg.APIKeyHeader, keys, policy)

			result, err := limiter.Allow(r.Context(), identifier)
			if err != nil {
				logger.FromContext(r.Context(), cfg.Logger).Warn("rate limiter unavailable, allowing request",
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, result)

			if !result.Allowed {
				metrics.RecordRateLimited()
				writeRateLimitResponse(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitKey uses the API key header only for keys in the allow-list.
// Unknown or missing keys share the client IP's budget.
func rateLimitKey(r *http.Request, apiKeyHeader string, keys map[string]struct{}, policy ProxyPolicy) string {
	if apiKeyHeader != "" {
		if key := r.Header.Get(apiKeyHeader); key != "" {
			if _, ok := keys[key]; ok {
				return "api:" + key
			}
		}
	}

	ip := GetClientIP(r.Context())
	if ip == "" {
		ip = policy.Resolve(r)
	}
	return "ip:" + ip
}

func retrySeconds(d time.Duration) int {
	return max(int(d.Seconds()), 1)
}

func setRateLimitHeaders(w http.ResponseWriter, result *ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

	if result.ResetAfter > 0 {
		reset := time.Now().Add(result.ResetAfter).Unix()
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
	}

	if !result.Allowed && result.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(result.RetryAfter)))
	}
}

func writeRateLimitResponse(w http.ResponseWriter, result *ratelimit.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(RateLimitResponse{
		Error:      "rate limit exceeded",
		Code:       "RATE_LIMIT_EXCEEDED",
		RetryAfter: retrySeconds(result.RetryAfter),
	})
}
