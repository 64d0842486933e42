package retrying

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/kmorand/gatehouse/internal/model"
	"github.com/kmorand/gatehouse/internal/storage"
)

// Config controls per-call timeouts and the retry schedule
type Config struct {
	// Timeout bounds each individual store call
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt
	MaxRetries uint64
	// BaseDelay seeds the exponential backoff
	BaseDelay time.Duration
}

// DefaultConfig returns sensible defaults for store retry behavior
func DefaultConfig() Config {
	return Config{
		Timeout:    3 * time.Second,
		MaxRetries: 2,
		BaseDelay:  100 * time.Millisecond,
	}
}

// Storage decorates a storage.Store with bounded per-call timeouts and
// exponential-backoff retries. Only infrastructure failures
// (model.ErrStoreUnavailable, per-attempt timeouts) are retried; domain
// errors such as a taken username pass through untouched.
type Storage struct {
	inner storage.Store
	cfg   Config
}

// New wraps a store with retry behavior
func New(inner storage.Store, cfg Config) *Storage {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = DefaultConfig().BaseDelay
	}
	return &Storage{inner: inner, cfg: cfg}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) do(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(s.cfg.MaxRetries, retry.NewExponential(s.cfg.BaseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()

		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
		}
		if errors.Is(err, model.ErrStoreUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	return err
}

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.inner.CreateUser(ctx, user)
	})
}

func (s *Storage) GetUser(ctx context.Context, username string) (*model.User, error) {
	var user *model.User
	err := s.do(ctx, func(ctx context.Context) error {
		var opErr error
		user, opErr = s.inner.GetUser(ctx, username)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Storage) UpdatePassword(ctx context.Context, username, newHash string, at time.Time) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.inner.UpdatePassword(ctx, username, newHash, at)
	})
}

func (s *Storage) GetDenylistWords(ctx context.Context) ([]string, error) {
	var words []string
	err := s.do(ctx, func(ctx context.Context) error {
		var opErr error
		words, opErr = s.inner.GetDenylistWords(ctx)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return words, nil
}

func (s *Storage) SaveDenylistWords(ctx context.Context, words []string) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.inner.SaveDenylistWords(ctx, words)
	})
}
