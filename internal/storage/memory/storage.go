package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kmorand/gatehouse/internal/model"
	"github.com/kmorand/gatehouse/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// The single mutex serializes all writes, which gives the per-username
// create/update atomicity the interface demands.
type Storage struct {
	mu sync.RWMutex

	users         map[string]*model.User
	denylistWords []string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users: make(map[string]*model.User),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return model.ErrUsernameTaken
	}
	u := *user
	s.users[user.Username] = &u
	return nil
}

func (s *Storage) GetUser(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (s *Storage) UpdatePassword(ctx context.Context, username, newHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return model.ErrUserNotFound
	}
	user.PasswordHash = newHash
	user.LastPasswordUpdate = at
	return nil
}

// Denylist operations

func (s *Storage) GetDenylistWords(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.denylistWords == nil {
		return nil, model.ErrDenylistNotLoaded
	}
	result := make([]string, len(s.denylistWords))
	copy(result, s.denylistWords)
	return result, nil
}

func (s *Storage) SaveDenylistWords(ctx context.Context, words []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denylistWords = make([]string, len(words))
	copy(s.denylistWords, words)
	return nil
}
