package response

import (
	"time"

	"github.com/kmorand/gatehouse/internal/services/auth"
)

// AuthResponse is the response for a successful login
type AuthResponse struct {
	Username     string    `json:"username"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Username:     s.Username,
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// RegisterResponse is the response for a successful registration.
// Registration does not log the user in, so no token is returned.
type RegisterResponse struct {
	Username string `json:"username"`
}

// WhoamiResponse describes the authenticated session
type WhoamiResponse struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WhoamiFromSession creates a WhoamiResponse from a session
func WhoamiFromSession(s *auth.Session) WhoamiResponse {
	return WhoamiResponse{
		Username:  s.Username,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
