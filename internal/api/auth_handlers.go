package api

import (
	"encoding/json"
	"net/http"
	"time"

	"vetchat/internal/auth"
	apperrors "vetchat/internal/errors"
	"vetchat/internal/service"
	"vetchat/pkg/logging"
)

type AuthHandler struct {
	service  service.AuthService
	tokenTTL time.Duration
	secure   bool
	logger   *logging.Logger
}

func NewAuthHandler(svc service.AuthService, tokenTTL time.Duration, secureCookies bool, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{service: svc, tokenTTL: tokenTTL, secure: secureCookies, logger: logger}
}

// Login accepts a username or an email in the username field. The token is
// returned in the body and set as an HttpOnly cookie for page loads.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, LoginResponse{Message: "Invalid request body"})
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		status := apperrors.StatusCode(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("login failed", "error", err)
			writeJSON(w, status, LoginResponse{Message: "Internal error"})
			return
		}
		writeJSON(w, status, LoginResponse{Message: "Invalid credentials"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, LoginResponse{Success: true, Token: token, Role: user.Role, Username: user.Username})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, SuccessResponse{Message: "Invalid request body"})
		return
	}

	caller, _ := auth.ClaimsFromContext(r.Context())
	if err := h.service.Register(r.Context(), req, caller); err != nil {
		status := apperrors.StatusCode(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			h.logger.Error("registration failed", "error", err)
			msg = "Internal error"
		}
		writeJSON(w, status, SuccessResponse{Message: msg})
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, CurrentUserResponse{LoggedIn: false})
		return
	}
	writeJSON(w, http.StatusOK, CurrentUserResponse{
		LoggedIn: true,
		User:     &SessionUser{Username: claims.Username, Email: claims.Email, Role: claims.Role},
	})
}

// AdminPage redirects non-admin visitors of the admin page to the login page.
func AdminPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok || !claims.IsAdmin() {
			http.Redirect(w, r, "/login.html", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
