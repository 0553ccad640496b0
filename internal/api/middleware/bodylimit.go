package middleware

import "net/http"

// MaxBodySize limits the request body to the given number of bytes.
// Subtitle saves carry the whole file as JSON, so the limit must leave
// room for a long movie's worth of cues.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
