package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

// TokenCookie carries the session token for browser page loads.
const TokenCookie = "vetchat_token"

// ClaimsFromContext returns the claims stored by JWTMiddleware, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok && claims != nil
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// JWTMiddleware attaches the claims of a valid token to the request
// context. The token comes from a Bearer Authorization header or, failing
// that, the session cookie. Requests without a token, or with a stale
// cookie, pass through anonymously; an invalid Bearer token is rejected.
func JWTMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromHeader, ok := tokenFromRequest(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := ParseToken(key, token)
			if err != nil {
				if !fromHeader {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func tokenFromRequest(r *http.Request) (token string, fromHeader, ok bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", true, false
		}
		return strings.TrimPrefix(header, "Bearer "), true, true
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value, false, true
	}
	return "", false, true
}

// RequireAdmin rejects anonymous callers with 401 and non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !claims.IsAdmin() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
