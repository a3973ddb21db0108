package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("conflict")
)

// Account is a registered chat name with its password hash.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// AccountStore persists accounts. Usernames are unique under utils.FoldName,
// the same way chat names are.
type AccountStore interface {
	CreateAccount(ctx context.Context, username, passwordHash string) (*Account, error)
	GetAccountByID(ctx context.Context, id int64) (*Account, error)
	// GetAccountByUsername matches on the folded name.
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	RecordLogin(ctx context.Context, id int64, at time.Time) error
}

// Store is the full persistence surface.
type Store interface {
	AccountStore
	Close() error
}
