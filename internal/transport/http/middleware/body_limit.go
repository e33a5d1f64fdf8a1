package middleware

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

// DefaultBodyLimit is far above any form this service accepts.
const DefaultBodyLimit int64 = 64 << 10

// BodyLimit rejects a declared oversized body with 413 and caps the rest,
// so form parsing fails past maxBytes instead of reading on.
func BodyLimit(maxBytes int64, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultBodyLimit
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeErr(w, r, domain.ErrPayloadTooLarge(maxBytes))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
