package factory

import (
	"time"

	"github.com/kmorand/gatehouse/internal/crypto"
	"github.com/kmorand/gatehouse/internal/dependencies/mocks"
	"github.com/kmorand/gatehouse/internal/services/auth"
	"github.com/kmorand/gatehouse/internal/storage/memory"
	"github.com/kmorand/gatehouse/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// MockClock allows tests to control time
	MockClock *mocks.MockClock
}

// NewForTesting creates an App backed by in-memory storage, a mock clock
// and a low-cost bcrypt hasher, suitable for fast deterministic tests.
func NewForTesting() *TestApp {
	return NewForTestingAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

// NewForTestingAt is like NewForTesting with the mock clock set to the given time.
func NewForTestingAt(now time.Time) *TestApp {
	store := memory.New()
	clk := mocks.NewMockClock(now)
	hasher := crypto.NewBcryptHasher(bcrypt.MinCost)
	logger := testutil.NopLogger()

	app := newWithDependencies(store, hasher, clk, auth.DefaultConfig(), logger)

	return &TestApp{
		App:       app,
		MockClock: clk,
	}
}

// LoadTestDenylist seeds the policy service with a small denylist so
// common-password checks can be exercised without a data file.
func (t *TestApp) LoadTestDenylist() {
	t.PolicyService.LoadWords([]string{
		"password",
		"Password_123",
		"Qwerty_123456",
		"Letmein_12345",
		"Welcome_12345",
	})
}
