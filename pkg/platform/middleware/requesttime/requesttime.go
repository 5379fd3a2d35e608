// Package requesttime pins a single "now" per HTTP request. Every derived
// grant status, audit timestamp, and decision within the request observes the
// same instant, which keeps lazy expiry consistent across read paths.
package requesttime

import (
	"net/http"
	"time"

	"meshgov/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and stores
// it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
