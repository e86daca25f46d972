package api

import (
	"net/http"
	"path/filepath"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"vetchat/internal/auth"
	"vetchat/pkg/logging"
)

type RouterConfig struct {
	Logger       *logging.Logger
	Chat         *ChatHandler
	Auth         *AuthHandler
	Appointments *AppointmentHandler
	Health       *HealthHandler
	Metrics      http.Handler
	RateLimiter  *RateLimiter
	JWTSecret    string
	CORSOrigins  []string
	StaticDir    string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(RequestLogger(cfg.Logger))
	// Public endpoints ignore credentials; only session and admin routes read them.
	withSession := auth.JWTMiddleware(cfg.JWTSecret)

	// Public endpoints
	chat := http.Handler(http.HandlerFunc(cfg.Chat.Chat))
	if cfg.RateLimiter != nil {
		chat = cfg.RateLimiter.Middleware(chat)
	}
	r.Handle("/chat", chat).Methods(http.MethodPost)
	r.HandleFunc("/api/slots", cfg.Chat.ListSlots).Methods(http.MethodGet)
	r.HandleFunc("/healthz", cfg.Health.Health).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	// Session endpoints
	r.HandleFunc("/login", cfg.Auth.Login).Methods(http.MethodPost)
	r.Handle("/logout", withSession(http.HandlerFunc(cfg.Auth.Logout))).Methods(http.MethodPost)
	r.Handle("/register", withSession(http.HandlerFunc(cfg.Auth.Register))).Methods(http.MethodPost)
	r.Handle("/user", withSession(http.HandlerFunc(cfg.Auth.CurrentUser))).Methods(http.MethodGet)

	// Admin endpoints (protected)
	admin := r.PathPrefix("/appointments").Subrouter()
	admin.Use(withSession, auth.RequireAdmin)
	admin.HandleFunc("", cfg.Appointments.ListAppointments).Methods(http.MethodGet)
	admin.HandleFunc("/{id:[0-9]+}", cfg.Appointments.UpdateAppointment).Methods(http.MethodPut)

	if cfg.StaticDir != "" {
		static := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/admin.html", withSession(AdminPage(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			http.ServeFile(w, req, filepath.Join(cfg.StaticDir, "admin.html"))
		})))).Methods(http.MethodGet)
		r.PathPrefix("/").Handler(static).Methods(http.MethodGet, http.MethodHead)
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-ID"}),
	)(r)
}
