package auth

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vovakirdan/partyline/internal/store/sqlite"
)

func TestMain(m *testing.M) {
	passwordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

var testJWT = &JWTConfig{
	Secret:   []byte("test-secret-change-me"),
	Issuer:   "test",
	Audience: "test",
	TTL:      24 * time.Hour,
}

func newTestAuthService(t *testing.T, opts ...Option) (*Service, *sqlite.SQLiteStore) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewService(st, testJWT, opts...), st
}

func TestRegister_RejectsInvalidUsername(t *testing.T) {
	svc, _ := newTestAuthService(t, WithMaxNameLength(10))
	ctx := context.Background()

	for _, name := range []string{"ab", " ab ", "abcdefghijk"} {
		if _, err := svc.Register(ctx, name, "password123"); !errors.Is(err, ErrInvalidUsername) {
			t.Fatalf("%q: expected ErrInvalidUsername, got %v", name, err)
		}
	}
}

func TestRegister_RejectsInvalidPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "abc", "12345"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "abc", strings.Repeat("p", 73)); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword for overlong password, got %v", err)
	}
}

func TestRegister_DuplicateIgnoresCase(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, " alice ", "password123")
	if err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}
	name, err := svc.VerifyToken(token)
	if err != nil || name != "alice" {
		t.Fatalf("expected token for alice, got %q (%v)", name, err)
	}

	for _, dup := range []string{"ALICE", "Alice"} {
		if _, err := svc.Register(ctx, dup, "password123"); !errors.Is(err, ErrUserExists) {
			t.Fatalf("expected ErrUserExists for %q, got %v", dup, err)
		}
	}
}

func TestRegister_DuplicateIgnoresUnicodeCase(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Émile", "password123"); err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}
	if _, err := svc.Register(ctx, "émile", "password123"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	// Login with any casing yields a token for the stored spelling.
	token, err := svc.Login(ctx, "ÉMILE", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	name, err := svc.VerifyToken(token)
	if err != nil || name != "Émile" {
		t.Fatalf("expected token for Émile, got %q (%v)", name, err)
	}
}

func TestRegister_ReservedName(t *testing.T) {
	svc, _ := newTestAuthService(t, WithReservedNames("admin215"))

	if _, err := svc.Register(context.Background(), "Admin215", "password123"); !errors.Is(err, ErrUsernameReserved) {
		t.Fatalf("expected ErrUsernameReserved, got %v", err)
	}
}

func TestEnsureAccount_CreatesAndRotates(t *testing.T) {
	svc, st := newTestAuthService(t, WithReservedNames("admin215"))
	ctx := context.Background()

	if err := svc.EnsureAccount(ctx, "admin215", "first-pass"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := svc.Login(ctx, "admin215", "first-pass"); err != nil {
		t.Fatalf("login with first password: %v", err)
	}

	// Unchanged password keeps the stored hash.
	before, _ := st.GetAccountByUsername(ctx, "admin215")
	if err := svc.EnsureAccount(ctx, "admin215", "first-pass"); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	after, _ := st.GetAccountByUsername(ctx, "admin215")
	if before.PasswordHash != after.PasswordHash {
		t.Fatalf("hash rewritten for unchanged password")
	}

	if err := svc.EnsureAccount(ctx, "ADMIN215", "second-pass"); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := svc.Login(ctx, "admin215", "first-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := svc.Login(ctx, "admin215", "second-pass"); err != nil {
		t.Fatalf("login with rotated password: %v", err)
	}
}

func TestLoginAndVerifyToken(t *testing.T) {
	svc, st := newTestAuthService(t)
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	if _, err := svc.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	token, err := svc.Login(ctx, "Alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// The token carries the stored spelling, not the one typed at login.
	name, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if name != "alice" {
		t.Fatalf("expected alice, got %q", name)
	}

	acc, err := st.GetAccountByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if acc.LastLoginAt == nil || !acc.LastLoginAt.Equal(fixed) {
		t.Fatalf("expected last login %v, got %v", fixed, acc.LastLoginAt)
	}
}

func TestVerifyToken_RejectsForeignTokens(t *testing.T) {
	svc, _ := newTestAuthService(t)

	tests := []struct {
		name string
		cfg  *JWTConfig
	}{
		{name: "other secret", cfg: &JWTConfig{Secret: []byte("other-secret"), Issuer: "test", Audience: "test", TTL: time.Hour}},
		{name: "other audience", cfg: &JWTConfig{Secret: testJWT.Secret, Issuer: "test", Audience: "elsewhere", TTL: time.Hour}},
		{name: "other issuer", cfg: &JWTConfig{Secret: testJWT.Secret, Issuer: "someone", Audience: "test", TTL: time.Hour}},
		{name: "expired", cfg: &JWTConfig{Secret: testJWT.Secret, Issuer: "test", Audience: "test", TTL: -time.Minute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.cfg, 1, "alice")
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if _, err := svc.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	if _, err := svc.VerifyToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if ok, err := CheckPassword(hash, "s3cret!"); !ok || err != nil {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	if ok, err := CheckPassword(hash, "nope"); ok || err != nil {
		t.Fatalf("expected clean mismatch, got %v %v", ok, err)
	}
	if _, err := CheckPassword("not-a-hash", "x"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}
