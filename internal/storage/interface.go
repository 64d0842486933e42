package storage

import (
	"context"
	"time"

	"github.com/kmorand/gatehouse/internal/model"
)

// Store defines the interface for credential persistence.
//
// Implementations must enforce username uniqueness at the storage layer
// itself: concurrent CreateUser calls for the same username yield exactly
// one success, the rest model.ErrUsernameTaken. An application-level
// check-then-insert is not acceptable.
type Store interface {
	// CreateUser inserts a new user record. The insert is atomic: on
	// model.ErrUsernameTaken the store is unchanged.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUser returns the record for a username, or model.ErrUserNotFound.
	GetUser(ctx context.Context, username string) (*model.User, error)

	// UpdatePassword replaces the stored hash and stamps the
	// last-password-update time. Returns model.ErrUserNotFound if the user
	// does not exist. Writes for a single username are serialized.
	UpdatePassword(ctx context.Context, username, newHash string, at time.Time) error

	// Denylist operations. The common-password set is loaded into storage
	// once at startup and read back by the policy engine.
	GetDenylistWords(ctx context.Context) ([]string, error)
	SaveDenylistWords(ctx context.Context, words []string) error
}
