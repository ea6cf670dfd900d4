package identity

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/fundwire/ledgerd/internal/config"
	"github.com/fundwire/ledgerd/internal/infra/pgtestutil"
)

func newTestService(t *testing.T, tokenTTL time.Duration) (*Service, *sql.DB, func()) {
	t.Helper()

	db, cleanup := pgtestutil.NewTestDB(t)

	svc := New(db,
		config.AuthConfig{JWTSecret: "test-secret", TokenTTL: tokenTTL},
		config.LedgerConfig{InitialBalanceMinor: 100000},
	)

	return svc, db, cleanup
}

func TestIdentity_Register(t *testing.T) {
	t.Parallel()

	svc, db, cleanup := newTestService(t, time.Hour)
	defer cleanup()

	ctx := t.Context()

	acc, token, err := svc.Register(ctx, "alice@example.com", "Alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if acc.ID == 0 || acc.Email != "alice@example.com" || acc.Name != "Alice" {
		t.Fatalf("account mismatch: %+v", acc)
	}

	if acc.Balance != 100000 {
		t.Fatalf("starting balance: got %d, want 100000", acc.Balance)
	}

	if acc.PasswordHash == "password123" || acc.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}

	// Issued token authenticates as the new account.
	accountID, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}

	if accountID != acc.ID {
		t.Fatalf("token subject: got %d, want %d", accountID, acc.ID)
	}

	var count int

	err = db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count)
	if err != nil {
		t.Fatalf("count accounts: %v", err)
	}

	if count != 1 {
		t.Fatalf("account rows: got %d, want 1", count)
	}

	// Same email again.
	_, _, err = svc.Register(ctx, "alice@example.com", "Alice Again", "other")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestIdentity_Register_InvalidInput(t *testing.T) {
	t.Parallel()

	svc, _, cleanup := newTestService(t, time.Hour)
	defer cleanup()

	tests := []struct {
		name     string
		email    string
		userName string
		password string
	}{
		{name: "missing_email", userName: "Alice", password: "pw"},
		{name: "missing_name", email: "a@example.com", password: "pw"},
		{name: "missing_password", email: "a@example.com", userName: "Alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(t.Context(), tt.email, tt.userName, tt.password)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestIdentity_Login(t *testing.T) {
	t.Parallel()

	svc, _, cleanup := newTestService(t, time.Hour)
	defer cleanup()

	ctx := t.Context()

	reg, _, err := svc.Register(ctx, "bob@example.com", "Bob", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	acc, token, err := svc.Login(ctx, "bob@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if acc.ID != reg.ID {
		t.Fatalf("account mismatch: got %d, want %d", acc.ID, reg.ID)
	}

	accountID, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}

	if accountID != reg.ID {
		t.Fatalf("token subject: got %d, want %d", accountID, reg.ID)
	}

	// Wrong password and unknown email look identical to the caller.
	_, _, err = svc.Login(ctx, "bob@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}

	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter2hunter2")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestIdentity_Profile(t *testing.T) {
	t.Parallel()

	svc, _, cleanup := newTestService(t, time.Hour)
	defer cleanup()

	ctx := t.Context()

	reg, _, err := svc.Register(ctx, "carol@example.com", "Carol", "pw12345678")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	acc, err := svc.Profile(ctx, reg.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}

	if acc.Email != "carol@example.com" || acc.Balance != 100000 {
		t.Fatalf("profile mismatch: %+v", acc)
	}
}

func TestIdentity_VerifyToken_Rejections(t *testing.T) {
	t.Parallel()

	svc, _, cleanup := newTestService(t, time.Hour)
	defer cleanup()

	// Garbage.
	_, err := svc.VerifyToken("not-a-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: expected ErrInvalidToken, got %v", err)
	}

	// Signed with a different secret.
	other := &Service{jwtSecret: []byte("other-secret"), tokenTTL: time.Hour}

	token, err := other.issueToken(1)
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}

	_, err = svc.VerifyToken(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign secret: expected ErrInvalidToken, got %v", err)
	}

	// Expired.
	expired := &Service{jwtSecret: []byte("test-secret"), tokenTTL: -time.Hour}

	token, err = expired.issueToken(1)
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}

	_, err = svc.VerifyToken(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: expected ErrInvalidToken, got %v", err)
	}
}
