// middleware/sizelimit.go
package middleware

import "net/http"

// LimitBodySize caps the request body at maxBytes. A declared Content-Length
// over the cap is answered with a plain 413 before the handler runs; a body
// without one (chunked) is cut off by http.MaxBytesReader, so form parsing
// fails instead of buffering an unbounded upload. If maxBytes <= 0 it is a
// no-op.
func LimitBodySize(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
