package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/roamplan/server/internal/api/problem"
	"github.com/roamplan/server/internal/auth"
)

type contextKeyAuth string

const sessionClaimsKey contextKeyAuth = "sessionClaims"

// SessionAuth accepts a session cookie or an Authorization: Bearer token and
// places the validated claims in the request context. Requests with neither
// are rejected with 401.
func SessionAuth(manager *auth.JWTManager, cookieName, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				problem.Write(w, r, http.StatusUnauthorized, "https://roamplan.app/problems/unauthorized", "Unauthorized", problem.ErrUnauthorized, env)
				return
			}

			token := sessionToken(r, cookieName)
			if token == "" {
				problem.Write(w, r, http.StatusUnauthorized, "https://roamplan.app/problems/unauthorized", "Authentication required", problem.ErrUnauthorized, env)
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, "https://roamplan.app/problems/unauthorized", "Invalid or expired session", err, env)
				return
			}

			ctx := contextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func contextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, claims)
}

// SessionClaims returns the claims attached by SessionAuth, or nil.
func SessionClaims(r *http.Request) *auth.Claims {
	if r == nil {
		return nil
	}
	if claims, ok := r.Context().Value(sessionClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// UserID returns the authenticated user's ID, or "" when unauthenticated.
func UserID(r *http.Request) string {
	if claims := SessionClaims(r); claims != nil {
		return claims.Subject
	}
	return ""
}
