package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fundwire/ledgerd/internal/repos/accounts"
)

func (r *accountsRepo) GetByID(ctx context.Context, id int64) (*accounts.Account, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	return r.get(ctx, `WHERE email = $1`, email)
}

func (r *accountsRepo) get(ctx context.Context, where string, arg any) (*accounts.Account, error) {
	var acc accounts.Account

	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, balance, created_at
		FROM accounts
	`+where, arg).Scan(&acc.ID, &acc.Email, &acc.Name, &acc.PasswordHash, &acc.Balance, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accounts.ErrAccountNotFound
		}

		return nil, fmt.Errorf("get account: %w", err)
	}

	return &acc, nil
}

func (r *accountsRepo) ResolveIDByEmail(tx *sql.Tx, email string) (int64, error) {
	var id int64

	err := tx.QueryRow(`
		SELECT id
		FROM accounts
		WHERE email = $1
	`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, accounts.ErrAccountNotFound
		}

		return 0, fmt.Errorf("resolve id by email: %w", err)
	}

	return id, nil
}
