package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// Forwarding headers consulted when proxies are trusted.
const (
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
)

// ProxyPolicy decides whether forwarding headers may be believed.
// An empty Trusted set trusts every peer when TrustProxy is on.
type ProxyPolicy struct {
	TrustProxy bool
	Trusted    map[string]bool
}

// NewProxyPolicy builds a policy from a list of trusted proxy IPs.
func NewProxyPolicy(trustProxy bool, trustedProxies []string) ProxyPolicy {
	p := ProxyPolicy{TrustProxy: trustProxy, Trusted: make(map[string]bool, len(trustedProxies))}
	for _, ip := range trustedProxies {
		p.Trusted[ip] = true
	}
	return p
}

// Resolve returns the client address for r.
func (p ProxyPolicy) Resolve(r *http.Request) string {
	remoteIP := hostOnly(r.RemoteAddr)

	if !p.TrustProxy {
		return remoteIP
	}
	if len(p.Trusted) > 0 && !p.Trusted[remoteIP] {
		return remoteIP
	}

	if xff := r.Header.Get(HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get(HeaderXRealIP)); xri != "" {
		return xri
	}

	return remoteIP
}

// ClientIP stores the resolved client IP in the request context.
func ClientIP(trustProxy bool, trustedProxies []string) Middleware {
	policy := NewProxyPolicy(trustProxy, trustedProxies)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), clientIPKey, policy.Resolve(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// hostOnly strips the port from addr when present.
func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
