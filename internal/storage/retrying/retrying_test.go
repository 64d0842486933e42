package retrying

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorand/gatehouse/internal/model"
	"github.com/kmorand/gatehouse/internal/storage"
)

// flakyStore fails the first n calls to GetUser with the given error
type flakyStore struct {
	storage.Store

	failures int
	err      error
	calls    int
}

func (f *flakyStore) GetUser(ctx context.Context, username string) (*model.User, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &model.User{Username: username}, nil
}

func fastConfig() Config {
	return Config{
		Timeout:    time.Second,
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
	}
}

func TestRetriesStoreUnavailable(t *testing.T) {
	inner := &flakyStore{
		failures: 2,
		err:      fmt.Errorf("%w: connection refused", model.ErrStoreUnavailable),
	}
	store := New(inner, fastConfig())

	user, err := store.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 3, inner.calls)
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	inner := &flakyStore{
		failures: 10,
		err:      fmt.Errorf("%w: connection refused", model.ErrStoreUnavailable),
	}
	store := New(inner, fastConfig())

	_, err := store.GetUser(context.Background(), "alice")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	assert.Equal(t, 3, inner.calls) // initial attempt + 2 retries
}

func TestDomainErrorsAreNotRetried(t *testing.T) {
	inner := &flakyStore{
		failures: 10,
		err:      model.ErrUserNotFound,
	}
	store := New(inner, fastConfig())

	_, err := store.GetUser(context.Background(), "alice")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
	assert.Equal(t, 1, inner.calls)
}

func TestPerAttemptTimeout(t *testing.T) {
	inner := &hangingStore{}
	cfg := fastConfig()
	cfg.Timeout = 10 * time.Millisecond
	store := New(inner, cfg)

	_, err := store.GetUser(context.Background(), "alice")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	assert.Equal(t, 3, inner.calls)
}

func TestSuccessPassesThrough(t *testing.T) {
	inner := &flakyStore{failures: 0}
	store := New(inner, fastConfig())

	user, err := store.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 1, inner.calls)
}

// hangingStore blocks until the per-attempt context expires
type hangingStore struct {
	storage.Store

	calls int
}

func (h *hangingStore) GetUser(ctx context.Context, username string) (*model.User, error) {
	h.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}
