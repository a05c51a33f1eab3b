package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/practice-planner/backend/internal/auth"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Authenticate resolves the Authorization bearer token to a user and
// injects the user id into the request context. Requests without a valid
// session are rejected with 401.
func Authenticate(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Missing bearer token")
				return
			}

			session, _, err := authSvc.Session(r.Context(), token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id stored by Authenticate, or ""
// on unauthenticated requests.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// bearerToken extracts the token from the Authorization header, falling
// back to the access_token query parameter for the WebSocket endpoint
// (browsers cannot set headers on WebSocket dials).
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}
