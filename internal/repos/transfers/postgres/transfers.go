package transfers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fundwire/ledgerd/internal/repos/transfers"
)

var _ transfers.Transfers = (*transfersRepo)(nil)

type transfersRepo struct{ db *sql.DB }

func New(db *sql.DB) *transfersRepo {
	return &transfersRepo{db: db}
}

func (r *transfersRepo) Insert(tx *sql.Tx, tr *transfers.Transfer) error {
	err := tx.QueryRow(`
		INSERT INTO transfers (id, sender_id, receiver_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, tr.ID, tr.SenderID, tr.ReceiverID, tr.Amount, tr.Status).Scan(&tr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}

	return nil
}

func (r *transfersRepo) ListByAccount(ctx context.Context, accountID int64) ([]transfers.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.sender_id, t.receiver_id, t.amount, t.status, t.created_at,
		       s.id, s.name, s.email,
		       rc.id, rc.name, rc.email
		FROM transfers t
		JOIN accounts s  ON s.id = t.sender_id
		JOIN accounts rc ON rc.id = t.receiver_id
		WHERE t.sender_id = $1 OR t.receiver_id = $1
		ORDER BY t.created_at DESC, t.id DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	entries := make([]transfers.HistoryEntry, 0)

	for rows.Next() {
		var e transfers.HistoryEntry

		err = rows.Scan(
			&e.ID, &e.SenderID, &e.ReceiverID, &e.Amount, &e.Status, &e.CreatedAt,
			&e.Sender.ID, &e.Sender.Name, &e.Sender.Email,
			&e.Receiver.ID, &e.Receiver.Name, &e.Receiver.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transfer row: %w", err)
		}

		entries = append(entries, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transfer rows: %w", err)
	}

	return entries, nil
}
