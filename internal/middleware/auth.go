package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gatherhub/gatherly/internal/auth"
	"github.com/gatherhub/gatherly/internal/http/respond"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// RequireAuth validates the bearer token and injects the caller's claims into
// the request context. Requests without a valid token get 401 and never reach
// the wrapped handler.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respond.Error(w, http.StatusUnauthorized, "authorization header is missing")
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respond.Error(w, http.StatusUnauthorized, "authorization header format must be Bearer {token}")
				return
			}
			claims, err := tokens.Parse(parts[1])
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}
