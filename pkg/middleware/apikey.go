/**
 * @description
 * This package provides middleware for the HTTP server. Internal endpoints
 * are guarded by a shared API key: callers inside the constellation (the
 * gateway, sibling services) present it in the X-Internal-API-Key header.
 */
package middleware

import "net/http"

// APIKeyHeader is the header internal callers use to authenticate.
const APIKeyHeader = "X-Internal-API-Key"

// InternalAPIKey creates a middleware that rejects requests lacking the shared
// internal API key. Provider callbacks and health checks are routed outside
// this middleware since external callers hold no key.
func InternalAPIKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" || key != apiKey {
				http.Error(w, "Missing or invalid internal API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
