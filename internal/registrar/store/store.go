package store

import (
	"context"
	"errors"

	"github.com/synapsekit/registrar/internal/registrar/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrAlreadyUsed   = errors.New("store: token already used")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Tokens() Tokens
	Admins() Admins

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Tokens interface {
	// CreateToken inserts a new unused token with the given value.
	// Returns ErrAlreadyExists if the value collides with an existing token.
	CreateToken(ctx context.Context, value string) (domain.Token, error)

	// GetTokenByValue returns the token with the exact value, or ErrNotFound.
	// It never mutates state.
	GetTokenByValue(ctx context.Context, value string) (domain.Token, error)

	// ListTokens returns tokens matching the filter, most recent first.
	ListTokens(ctx context.Context, filter domain.TokenFilter) ([]domain.Token, error)

	// CountTokens returns the total/used/unused bucket sizes.
	CountTokens(ctx context.Context) (domain.TokenStats, error)

	// DeleteToken removes a token row regardless of used state.
	// Returns ErrNotFound when no row has that id.
	DeleteToken(ctx context.Context, id int64) error

	// ConsumeToken atomically transitions an unused token to used, recording
	// usedBy and the consumption time, and returns the updated row. It is a
	// single conditional update: under concurrent callers with the same value
	// exactly one succeeds. Returns ErrNotFound if no token has that value,
	// or ErrAlreadyUsed if it exists but was consumed before.
	ConsumeToken(ctx context.Context, value, usedBy string) (domain.Token, error)
}

type Admins interface {
	// CreateAdmin inserts a new admin with a pre-hashed password.
	// Returns ErrAlreadyExists when the username is taken.
	CreateAdmin(ctx context.Context, username, passwordHash string) (domain.AdminUser, error)

	// GetAdminByUsername returns the admin record or ErrNotFound.
	GetAdminByUsername(ctx context.Context, username string) (domain.AdminUser, error)

	// UpdateLastLogin stamps last_login_at with the current time.
	UpdateLastLogin(ctx context.Context, username string) error

	// UpdatePasswordHash atomically replaces the stored hash.
	// Returns ErrNotFound when the admin does not exist.
	UpdatePasswordHash(ctx context.Context, username, newHash string) error

	// ListAdmins returns all admins ordered by username.
	ListAdmins(ctx context.Context) ([]domain.AdminUser, error)

	// DeleteAdmin removes an admin. Returns ErrNotFound when absent.
	DeleteAdmin(ctx context.Context, username string) error
}
