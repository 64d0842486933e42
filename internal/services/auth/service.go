package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kmorand/gatehouse/internal/crypto"
	"github.com/kmorand/gatehouse/internal/dependencies/clock"
	"github.com/kmorand/gatehouse/internal/model"
	"github.com/kmorand/gatehouse/internal/services/policy"
	"github.com/kmorand/gatehouse/internal/storage"
)

// Errors
var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password. Callers must not distinguish the two; the detail is logged
	// server-side only.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrCurrentPassword    = errors.New("current password is incorrect")
	ErrUsernameTaken      = model.ErrUsernameTaken
)

// PolicyError reports a rejected password with every failed rule.
type PolicyError struct {
	Reasons []policy.Reason
}

// Error implements the error interface
func (e *PolicyError) Error() string {
	descs := make([]string, len(e.Reasons))
	for i, r := range e.Reasons {
		descs[i] = r.Description()
	}
	return "password does not meet complexity requirements: " + strings.Join(descs, "; ")
}

// Session represents an authenticated session
type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service handles registration, login, password updates, and session
// management. Sessions are held in memory; credentials live in the store.
type Service struct {
	storage storage.Store
	policy  *policy.Service
	hasher  crypto.Hasher
	clock   clock.Clock
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(store storage.Store, policySvc *policy.Service, hasher crypto.Hasher, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         store,
		policy:          policySvc,
		hasher:          hasher,
		clock:           clk,
		logger:          logger,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// Register creates a new user account. The password must pass the policy
// check before anything is hashed or stored. On success the user is ready
// to log in but holds no session.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if res := s.policy.Check(password); !res.OK {
		return &PolicyError{Reasons: res.Reasons}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	user := &model.User{
		Username:           username,
		PasswordHash:       hash,
		CreatedAt:          now,
		LastPasswordUpdate: now,
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrUsernameTaken) {
			s.logger.Warn("registration failed: username taken", slog.String("username", username))
		}
		return err
	}

	s.logger.Info("new user registered", slog.String("username", username))
	return nil
}

// Login authenticates a user and creates a session. An unknown username and
// a failed verify both come back as ErrInvalidCredentials; the distinction
// only reaches the server log.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.storage.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.logger.Warn("failed login attempt: unknown username", slog.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Warn("failed login attempt: wrong password", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("user logged in", slog.String("username", username))
	return s.createSession(username), nil
}

// UpdatePassword changes the password for the session's user. The stored
// credential is left untouched unless every check passes.
func (s *Service) UpdatePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	session, err := s.ValidateSession(token)
	if err != nil {
		return err
	}

	user, err := s.storage.GetUser(ctx, session.Username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// The account vanished between login and now; force re-auth.
			s.InvalidateSession(token)
			return ErrInvalidSession
		}
		return err
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		s.logger.Warn("password update rejected: wrong current password", slog.String("username", session.Username))
		return ErrCurrentPassword
	}

	if res := s.policy.Check(newPassword); !res.OK {
		return &PolicyError{Reasons: res.Reasons}
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.storage.UpdatePassword(ctx, session.Username, hash, s.clock.Now()); err != nil {
		return err
	}

	s.logger.Info("password updated", slog.String("username", session.Username))
	return nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session (logout)
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// createSession creates a new session for a username
func (s *Service) createSession(username string) *Session {
	token := generateToken()
	now := s.clock.Now()

	session := &Session{
		Token:     token,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session
}

// generateToken generates an opaque random session token
func generateToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return "sess_" + base64.RawURLEncoding.EncodeToString(b)
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}
