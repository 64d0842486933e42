package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmorand/gatehouse/internal/model"
	"github.com/kmorand/gatehouse/internal/storage"
)

// Storage is a PostgreSQL-backed implementation of the storage interface.
// The UNIQUE constraint on users.username is what guarantees exactly one
// winner among concurrent registrations.
type Storage struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and verifies the connection
func New(ctx context.Context, url string) (*Storage, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	return &Storage{pool: pool}, nil
}

// NewWithPool creates a Storage with an existing pool (for testing)
func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

// Close releases the connection pool
func (s *Storage) Close() {
	s.pool.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Migrate creates the schema if it does not exist
func (s *Storage) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			username             TEXT PRIMARY KEY,
			password_hash        TEXT NOT NULL,
			created_at           TIMESTAMPTZ NOT NULL,
			last_password_update TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS common_passwords (
			word TEXT PRIMARY KEY
		);
	`)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (username, password_hash, created_at, last_password_update)
		VALUES ($1, $2, $3, $4)
	`, user.Username, user.PasswordHash, user.CreatedAt, user.LastPasswordUpdate)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.ErrUsernameTaken
		}
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := s.pool.QueryRow(ctx, `
		SELECT username, password_hash, created_at, last_password_update
		FROM users
		WHERE username = $1
	`, username).Scan(&user.Username, &user.PasswordHash, &user.CreatedAt, &user.LastPasswordUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return &user, nil
}

func (s *Storage) UpdatePassword(ctx context.Context, username, newHash string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, last_password_update = $3
		WHERE username = $1
	`, username, newHash, at)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// Denylist operations

func (s *Storage) GetDenylistWords(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT word FROM common_passwords`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
		}
		words = append(words, word)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	if len(words) == 0 {
		return nil, model.ErrDenylistNotLoaded
	}
	return words, nil
}

func (s *Storage) SaveDenylistWords(ctx context.Context, words []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM common_passwords`); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	rows := make([][]any, len(words))
	for i, w := range words {
		rows[i] = []any{w}
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"common_passwords"}, []string{"word"}, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}
