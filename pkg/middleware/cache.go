package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl sets a public Cache-Control header on anonymous GET and HEAD
// requests. Authenticated requests get "private, no-store" since their
// responses may depend on the caller.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	public := fmt.Sprintf("public, max-age=%d", maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				if r.Header.Get("Authorization") != "" {
					w.Header().Set("Cache-Control", "private, no-store")
				} else {
					w.Header().Set("Cache-Control", public)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
