package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ams29/newagent/pkg/logger"
)

// RequestID tags the request context so every log line of one request can be
// correlated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.ContextWithRequestID(r.Context(), uuid.NewString()[:8])

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
