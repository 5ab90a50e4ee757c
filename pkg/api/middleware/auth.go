package middleware

import (
	"log/slog"
	"net/http"
)

type Authenticator interface {
	IsAuthorized(userID string) bool
}

// Auth rejects requests whose X-User-ID header is missing or not allowed.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if !authenticator.IsAuthorized(userID) {
				slog.WarnContext(r.Context(), "Unauthorized access attempt", "userID", userID)
				http.Error(w, "not authorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
