package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vovakirdan/partyline/internal/store"
	"github.com/vovakirdan/partyline/internal/utils"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when the name already has an account.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when the name is outside the allowed length.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when the password is too short or too long.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrUsernameReserved is returned when a reserved name is self-registered.
	ErrUsernameReserved = errors.New("username reserved")
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// Service issues join tokens for registered chat names.
type Service struct {
	store      store.AccountStore
	jwtConfig  *JWTConfig
	maxNameLen int
	reserved   map[string]struct{}
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithMaxNameLength keeps account names within the chat's join limit.
func WithMaxNameLength(n int) Option {
	return func(s *Service) {
		if n >= minUsernameLen {
			s.maxNameLen = n
		}
	}
}

// WithReservedNames blocks self-registration of names; EnsureAccount can still create them.
func WithReservedNames(names ...string) Option {
	return func(s *Service) {
		for _, n := range names {
			if key := utils.FoldName(n); key != "" {
				s.reserved[key] = struct{}{}
			}
		}
	}
}

// NewService creates a new authentication service.
func NewService(accounts store.AccountStore, jwtConfig *JWTConfig, opts ...Option) *Service {
	s := &Service{
		store:      accounts,
		jwtConfig:  jwtConfig,
		maxNameLen: 32,
		reserved:   make(map[string]struct{}),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and returns a join token for it.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if err := s.validate(username, password); err != nil {
		return "", err
	}
	if _, reserved := s.reserved[utils.FoldName(username)]; reserved {
		return "", ErrUsernameReserved
	}

	account, err := s.create(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.issue(account)
}

// EnsureAccount creates username or resets its password. It ignores the
// reserved list and is meant for provisioning from configuration.
func (s *Service) EnsureAccount(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if err := s.validate(username, password); err != nil {
		return err
	}

	account, err := s.store.GetAccountByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		_, err = s.create(ctx, username, password)
		return err
	}
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	if ok, _ := CheckPassword(account.PasswordHash, password); ok {
		return nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Login checks credentials and returns a join token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	account, err := s.store.GetAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("get account: %w", err)
	}

	ok, err := CheckPassword(account.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	if err := s.store.RecordLogin(ctx, account.ID, s.now()); err != nil {
		return "", fmt.Errorf("record login: %w", err)
	}
	return s.issue(account)
}

// ValidateToken validates a join token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// VerifyToken returns the chat name a valid token was issued for.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *Service) validate(username, password string) error {
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > s.maxNameLen {
		return ErrInvalidUsername
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordBytes {
		return ErrInvalidPassword
	}
	return nil
}

func (s *Service) create(ctx context.Context, username, password string) (*store.Account, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	account, err := s.store.CreateAccount(ctx, username, hash)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

func (s *Service) issue(account *store.Account) (string, error) {
	token, err := GenerateToken(s.jwtConfig, account.ID, account.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}
