package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vetchat/internal/db"
)

func signedToken(t *testing.T, secret, role string, ttl time.Duration) string {
	t.Helper()
	token, err := NewToken([]byte(secret), &db.User{ID: 3, Username: "ann", Email: "ann@example.com", Role: role}, ttl, time.Now())
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func serve(handler http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddlewareAnonymous(t *testing.T) {
	called := false
	h := JWTMiddleware("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := ClaimsFromContext(r.Context()); ok {
			t.Fatalf("expected no claims for anonymous request")
		}
	}))

	rec := serve(h, "")
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("expected anonymous request to pass, got %d", rec.Code)
	}
}

func TestJWTMiddlewareRejectsBadTokens(t *testing.T) {
	h := JWTMiddleware("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))

	cases := map[string]string{
		"wrong secret": "Bearer " + signedToken(t, "other", db.RoleUser, time.Hour),
		"expired":      "Bearer " + signedToken(t, "secret", db.RoleUser, -time.Minute),
		"not bearer":   "Basic YWRtaW46YWRtaW4=",
		"garbage":      "Bearer not.a.token",
	}
	for name, header := range cases {
		if rec := serve(h, header); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	h := JWTMiddleware("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("expected claims in context")
		}
		if claims.Username != "ann" || claims.Subject != "3" {
			t.Fatalf("unexpected claims: %+v", claims)
		}
	}))

	if rec := serve(h, "Bearer "+signedToken(t, "secret", db.RoleUser, time.Hour)); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	h := JWTMiddleware("secret")(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	if rec := serve(h, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rec.Code)
	}
	if rec := serve(h, "Bearer "+signedToken(t, "secret", db.RoleUser, time.Hour)); rec.Code != http.StatusForbidden {
		t.Fatalf("user: expected 403, got %d", rec.Code)
	}
	if rec := serve(h, "Bearer "+signedToken(t, "secret", db.RoleAdmin, time.Hour)); rec.Code != http.StatusNoContent {
		t.Fatalf("admin: expected 204, got %d", rec.Code)
	}
}

func TestNewTokenRequiresSecret(t *testing.T) {
	if _, err := NewToken(nil, &db.User{Username: "ann"}, time.Hour, time.Now()); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestJWTMiddlewareReadsCookie(t *testing.T) {
	h := JWTMiddleware("secret")(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signedToken(t, "secret", db.RoleAdmin, time.Hour)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestJWTMiddlewareStaleCookieIsAnonymous(t *testing.T) {
	h := JWTMiddleware("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); ok {
			t.Fatalf("expected no claims for stale cookie")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signedToken(t, "secret", db.RoleUser, -time.Minute)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
