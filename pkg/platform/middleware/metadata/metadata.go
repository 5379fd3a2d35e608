// Package metadata extracts request-scoped identity and correlation values
// from headers into the context: the acting user (X-Actor-ID), a request ID
// (X-Request-ID, generated when absent), and the client IP.
package metadata

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	id "meshgov/pkg/domain"
	"meshgov/pkg/requestcontext"
)

// Middleware populates actor, request ID, and client IP context values.
// A malformed X-Actor-ID is treated as anonymous rather than rejected here;
// handlers that require an actor enforce that themselves.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if actor, err := id.ParseUserID(r.Header.Get("X-Actor-ID")); err == nil {
			ctx = requestcontext.WithActorID(ctx, actor)
		}

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithClientIP(ctx, clientIP(r))

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP extracts the real client IP, handling proxies and load balancers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs; the first is the client.
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		// RemoteAddr is "ip:port" ("[::1]:port" for IPv6).
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
