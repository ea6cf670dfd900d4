package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Balance      int64 // minor units
	CreatedAt    time.Time
}

// Accounts is the store contract consumed by the ledger and identity
// services. Methods taking *sql.Tx participate in the caller's atomic
// scope; the rest run on the bare handle.
type Accounts interface {
	Create(ctx context.Context, email, name, passwordHash string, initialBalance int64) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// ResolveIDByEmail returns the account id for an email inside tx,
	// without locking the row.
	ResolveIDByEmail(tx *sql.Tx, email string) (int64, error)
	// LockBalance takes a FOR UPDATE lock on the account row and returns
	// the current balance. Concurrent transfers touching the same account
	// serialize here.
	LockBalance(tx *sql.Tx, id int64) (int64, error)
	// ApplyDelta adjusts the balance by a signed amount. The update is
	// guarded so a committed balance can never go negative.
	ApplyDelta(tx *sql.Tx, id int64, delta int64) error
}
