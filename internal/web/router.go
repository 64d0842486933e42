package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kmorand/gatehouse/internal/dependencies/clock"
	"github.com/kmorand/gatehouse/internal/services/auth"
	"github.com/kmorand/gatehouse/internal/web/handler"
	"github.com/kmorand/gatehouse/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Clock       clock.Clock
	StaticDir   string // Path to static files directory (optional)
}

// NewRouter creates a new web router with all routes configured.
// Everything except login, register, and static assets sits behind the
// session gate.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	flashMiddleware := middleware.Flash()
	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)

	// Apply global middleware to all routes
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	pageHandler := handler.NewPageHandler(clk)

	// Static files
	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	// Public routes: the only operations an anonymous client may reach
	public := r.NewRoute().Subrouter()
	public.Use(flashMiddleware)
	public.Use(optionalAuthMiddleware)
	public.HandleFunc("/login", authHandler.LoginPage).Methods(http.MethodGet)
	public.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	public.HandleFunc("/register", authHandler.RegisterPage).Methods(http.MethodGet)
	public.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	public.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Protected routes (require a valid session)
	protected := r.NewRoute().Subrouter()
	protected.Use(flashMiddleware)
	protected.Use(authMiddleware)
	protected.HandleFunc("/", pageHandler.Home).Methods(http.MethodGet)
	protected.HandleFunc("/overview", pageHandler.Overview).Methods(http.MethodGet)
	protected.HandleFunc("/archive", pageHandler.Archive).Methods(http.MethodGet)
	protected.HandleFunc("/account/password", authHandler.UpdatePasswordPage).Methods(http.MethodGet)
	protected.HandleFunc("/account/password", authHandler.UpdatePassword).Methods(http.MethodPost)

	return r
}
