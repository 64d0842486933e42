package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kmorand/gatehouse/internal/api/apierr"
	"github.com/kmorand/gatehouse/internal/api/middleware"
	"github.com/kmorand/gatehouse/internal/api/request"
	"github.com/kmorand/gatehouse/internal/api/response"
	"github.com/kmorand/gatehouse/internal/services/auth"
)

// AuthHandler handles authentication API endpoints
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid JSON body"))
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Username is required"))
		return
	}
	if len(username) > 64 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Username must be at most 64 characters"))
		return
	}

	if err := h.authService.Register(r.Context(), username, req.Password); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RegisterResponse{Username: username})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid JSON body"))
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Username and password are required"))
		return
	}

	session, err := h.authService.Login(r.Context(), username, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	h.authService.InvalidateSession(session.Token)
	response.NoContent(w)
}

// UpdatePassword handles POST /api/v1/auth/password
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	var req request.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid JSON body"))
		return
	}

	if err := h.authService.UpdatePassword(r.Context(), session.Token, req.CurrentPassword, req.NewPassword); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Whoami handles GET /api/v1/auth/whoami
func (h *AuthHandler) Whoami(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	response.JSON(w, http.StatusOK, response.WhoamiFromSession(session))
}
