package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kmorand/gatehouse/internal/services/auth"
	"github.com/kmorand/gatehouse/internal/services/policy"
	"github.com/kmorand/gatehouse/internal/web/middleware"
	"github.com/kmorand/gatehouse/internal/web/templates"
)

// User-facing messages. Authentication failures stay deliberately generic;
// the diagnostic detail lives in the server log only.
const (
	msgInvalidCredentials = "Invalid username or password"
	msgUsernameTaken      = "Username already taken"
	msgPasswordComplexity = "Password does not meet complexity requirements"
	msgPasswordCommon     = "Password is too common, please choose a different one"
	msgCurrentPassword    = "Current password is incorrect"
	msgPasswordUpdated    = "Password successfully updated"
	msgTryAgainLater      = "An error occurred. Please try again later."
)

// AuthHandler handles authentication pages and actions
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetSession(r.Context()) != nil {
		// Already logged in
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.renderLogin(w, r, templates.LoginData{
		Next: r.URL.Query().Get("next"),
	})
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, templates.LoginData{Error: "Invalid form data"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	if username == "" || password == "" {
		h.renderLogin(w, r, templates.LoginData{
			FormUsername: username,
			Error:        "Username and password are required",
			Next:         next,
		})
		return
	}

	session, err := h.authService.Login(r.Context(), username, password)
	if err != nil {
		h.renderLogin(w, r, templates.LoginData{
			FormUsername: username,
			Error:        workflowMessage(err),
			Next:         next,
		})
		return
	}

	h.setSessionCookie(w, session.Token)
	middleware.SetFlash(w, "success", "Welcome back, "+session.Username+"!")

	// Redirect to original destination or home. Only site-local paths are
	// honored; a "//" prefix is a protocol-relative external URL.
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		http.Redirect(w, r, next, http.StatusSeeOther)
	} else {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// RegisterPage renders the registration page
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetSession(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.renderRegister(w, r, templates.RegisterData{})
}

// Register handles registration form submission. A new account is not
// logged in automatically; the user is sent to the login page.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderRegister(w, r, templates.RegisterData{Error: "Invalid form data"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" {
		h.renderRegister(w, r, templates.RegisterData{Error: "Username is required"})
		return
	}
	if len(username) > 64 {
		h.renderRegister(w, r, templates.RegisterData{Error: "Username must be at most 64 characters"})
		return
	}

	if err := h.authService.Register(r.Context(), username, password); err != nil {
		h.renderRegister(w, r, templates.RegisterData{
			FormUsername: username,
			Error:        workflowMessage(err),
		})
		return
	}

	middleware.SetFlash(w, "success", "Registration successful. Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// UpdatePasswordPage renders the password update form
func (h *AuthHandler) UpdatePasswordPage(w http.ResponseWriter, r *http.Request) {
	h.renderUpdatePassword(w, r, templates.UpdatePasswordData{})
}

// UpdatePassword handles the password update form submission
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderUpdatePassword(w, r, templates.UpdatePasswordData{Error: "Invalid form data"})
		return
	}

	session := middleware.GetSession(r.Context())
	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	err := h.authService.UpdatePassword(r.Context(), session.Token, currentPassword, newPassword)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSession) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.renderUpdatePassword(w, r, templates.UpdatePasswordData{Error: workflowMessage(err)})
		return
	}

	middleware.SetFlash(w, "success", msgPasswordUpdated)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		h.authService.InvalidateSession(cookie.Value)
	}

	// Clear session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	middleware.SetFlash(w, "info", "You have been logged out")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   86400, // matches the default session duration
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// workflowMessage maps a workflow error to its single user-facing message
func workflowMessage(err error) string {
	var policyErr *auth.PolicyError
	switch {
	case errors.As(err, &policyErr):
		if len(policyErr.Reasons) == 1 && policyErr.Reasons[0] == policy.ReasonTooCommon {
			return msgPasswordCommon
		}
		return msgPasswordComplexity
	case errors.Is(err, auth.ErrUsernameTaken):
		return msgUsernameTaken
	case errors.Is(err, auth.ErrInvalidCredentials):
		return msgInvalidCredentials
	case errors.Is(err, auth.ErrCurrentPassword):
		return msgCurrentPassword
	default:
		return msgTryAgainLater
	}
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, data templates.LoginData) {
	data.Title = "Login"
	data.Flash = middleware.GetFlash(r.Context())
	renderPage(w, r, "login", data)
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, data templates.RegisterData) {
	data.Title = "Register"
	data.Flash = middleware.GetFlash(r.Context())
	renderPage(w, r, "register", data)
}

func (h *AuthHandler) renderUpdatePassword(w http.ResponseWriter, r *http.Request, data templates.UpdatePasswordData) {
	data.Title = "Change password"
	data.Flash = middleware.GetFlash(r.Context())
	if session := middleware.GetSession(r.Context()); session != nil {
		data.Username = session.Username
	}
	renderPage(w, r, "update_password", data)
}

// renderPage writes a page template as HTML
func renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Render(w, name, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
