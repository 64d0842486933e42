package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/kmorand/gatehouse/internal/crypto"
	"github.com/kmorand/gatehouse/internal/dependencies/clock"
	"github.com/kmorand/gatehouse/internal/services/auth"
	"github.com/kmorand/gatehouse/internal/services/policy"
	"github.com/kmorand/gatehouse/internal/storage"
	"github.com/kmorand/gatehouse/internal/storage/memory"
	"github.com/kmorand/gatehouse/internal/storage/postgres"
	redisstorage "github.com/kmorand/gatehouse/internal/storage/redis"
	"github.com/kmorand/gatehouse/internal/storage/retrying"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// Hasher type constants
const (
	HasherTypeBcrypt   = "bcrypt"
	HasherTypeArgon2id = "argon2id"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Store

	// External dependencies
	Clock  clock.Clock
	Hasher crypto.Hasher

	// Services
	PolicyService *policy.Service
	AuthService   *auth.Service
}

// Config holds configuration for the application factory
type Config struct {
	// CommonPasswordsPath is the path to the common-password denylist file (optional)
	// If empty, the denylist must be loaded manually
	CommonPasswordsPath string
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresURL is the Postgres connection string (required if StorageType is "postgres")
	PostgresURL string
	// HasherType selects the password hashing scheme ("bcrypt" or "argon2id")
	// If empty, defaults to "bcrypt"
	HasherType string
	// BcryptCost is the bcrypt work factor (optional, only used with the bcrypt hasher)
	BcryptCost int
	// RetryConfig controls timeouts and retries around the storage backend (optional)
	// If zero value, defaults to retrying.DefaultConfig()
	RetryConfig retrying.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypePostgres:
		if cfg.PostgresURL == "" {
			return nil, errors.New("PostgresURL required when StorageType is postgres")
		}
		pgStore, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := pgStore.Migrate(ctx); err != nil {
			return nil, err
		}
		store = pgStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}

	retryCfg := cfg.RetryConfig
	if retryCfg.Timeout == 0 {
		retryCfg = retrying.DefaultConfig()
	}
	store = retrying.New(store, retryCfg)

	// Create the password hasher
	var hasher crypto.Hasher
	switch cfg.HasherType {
	case "", HasherTypeBcrypt:
		hasher = crypto.NewBcryptHasher(cfg.BcryptCost)
	case HasherTypeArgon2id:
		hasher = crypto.NewArgon2idHasher()
	default:
		return nil, errors.New("invalid HasherType: must be 'bcrypt' or 'argon2id'")
	}

	// Create external dependencies
	clk := clock.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	app := newWithDependencies(store, hasher, clk, authCfg, logger)

	if cfg.CommonPasswordsPath != "" {
		if err := app.PolicyService.LoadFromFile(ctx, cfg.CommonPasswordsPath); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Store, hasher crypto.Hasher, clk clock.Clock, authCfg auth.Config, logger *slog.Logger) *App {
	policyService := policy.New(store, logger)
	authService := auth.New(store, policyService, hasher, clk, authCfg, logger)

	return &App{
		Storage:       store,
		Clock:         clk,
		Hasher:        hasher,
		PolicyService: policyService,
		AuthService:   authService,
	}
}
