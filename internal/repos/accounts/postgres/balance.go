package accounts

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fundwire/ledgerd/internal/repos/accounts"
)

func (r *accountsRepo) LockBalance(tx *sql.Tx, id int64) (int64, error) {
	var balance int64

	err := tx.QueryRow(`
		SELECT balance
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, accounts.ErrAccountNotFound
		}

		return 0, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}

func (r *accountsRepo) ApplyDelta(tx *sql.Tx, id int64, delta int64) error {
	res, err := tx.Exec(`
		UPDATE accounts
		SET balance = balance + $2
		WHERE id = $1
		  AND balance + $2 >= 0
	`, id, delta)
	if err != nil {
		return fmt.Errorf("apply delta: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		// Either the row is missing or the guard refused a negative
		// balance; tell them apart for the caller.
		var exists bool

		err = tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}

		if !exists {
			return accounts.ErrAccountNotFound
		}

		return accounts.ErrInsufficientFunds
	}

	return nil
}
