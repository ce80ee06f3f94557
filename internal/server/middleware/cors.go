package middleware

import (
	"net/http"
	"strconv"
)

// corsMaxAge is the preflight cache lifetime in seconds.
const corsMaxAge = 3600

// CORS permits cross-origin requests from exactly one configured origin,
// with credentials. Requests from other origins get no CORS headers and are
// left to the browser to block; same-origin and non-browser traffic is
// unaffected. An empty allowedOrigin disables the middleware.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedOrigin == "" {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == allowedOrigin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				if origin == allowedOrigin {
					// All methods and headers are allowed from the configured
					// origin. Headers are echoed rather than wildcarded since
					// credentialed requests ignore "*".
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS")
					if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
						w.Header().Set("Access-Control-Allow-Headers", requested)
					}
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
