package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fundwire/ledgerd/internal/repos/accounts"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ accounts.Accounts = (*accountsRepo)(nil)

type accountsRepo struct{ db *sql.DB }

func New(db *sql.DB) *accountsRepo {
	return &accountsRepo{db: db}
}

func (r *accountsRepo) Create(ctx context.Context, email, name, passwordHash string, initialBalance int64) (*accounts.Account, error) {
	acc := accounts.Account{
		Email:   email,
		Name:    name,
		Balance: initialBalance,
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (email, name, password_hash, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, email, name, passwordHash, initialBalance).Scan(&acc.ID, &acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, accounts.ErrEmailTaken
		}

		return nil, fmt.Errorf("insert account: %w", err)
	}

	acc.PasswordHash = passwordHash

	return &acc, nil
}
