package middleware

import (
	"net/http"
)

// DefaultMaxBodySize caps request bodies. Every payload this API accepts
// (login form, chat message, comment, profile change) is a small JSON
// object, so 64KB leaves ample headroom.
const DefaultMaxBodySize = 64 << 10

type BodyLimitMiddleware struct {
	maxSize int64
}

func NewBodyLimitMiddleware(maxSize int64) *BodyLimitMiddleware {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	return &BodyLimitMiddleware{maxSize: maxSize}
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.ContentLength > m.maxSize {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "Request body too large",
			})
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, m.maxSize)
		next.ServeHTTP(w, r)
	})
}
