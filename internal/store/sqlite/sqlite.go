package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/partyline/internal/store"
	"github.com/vovakirdan/partyline/internal/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL,
	username_key  TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_login_at DATETIME
);
`

const selectAccount = `SELECT id, username, password_hash, created_at, last_login_at FROM accounts`

// SQLiteStore implements store.Store on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup opens the database and runs setup instead of the default schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection keeps :memory: databases shared and writes serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate applies the account schema.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, username, passwordHash string) (*store.Account, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (username, username_key, password_hash) VALUES (?, ?, ?)`,
		username, utils.FoldName(username), passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert account %q: %w", username, store.ErrConflict)
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return s.GetAccountByID(ctx, id)
}

func (s *SQLiteStore) GetAccountByID(ctx context.Context, id int64) (*store.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, selectAccount+` WHERE id = ?`, id))
}

func (s *SQLiteStore) GetAccountByUsername(ctx context.Context, username string) (*store.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, selectAccount+` WHERE username_key = ?`, utils.FoldName(username)))
}

func (s *SQLiteStore) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	return s.updateOne(ctx, `UPDATE accounts SET password_hash = ? WHERE id = ?`, passwordHash, id)
}

func (s *SQLiteStore) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	return s.updateOne(ctx, `UPDATE accounts SET last_login_at = ? WHERE id = ?`, at.UTC(), id)
}

func (s *SQLiteStore) updateOne(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (*store.Account, error) {
	var (
		a         store.Account
		lastLogin sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLoginAt = &t
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
