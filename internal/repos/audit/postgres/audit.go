package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fundwire/ledgerd/internal/repos/audit"
)

var _ audit.Recorder = (*auditRepo)(nil)

type auditRepo struct{ db *sql.DB }

func New(db *sql.DB) *auditRepo {
	return &auditRepo{db: db}
}

func (r *auditRepo) Record(ctx context.Context, e *audit.Entry) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO audit_log (transfer_id, sender_id, receiver_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.TransferID, e.SenderID, e.ReceiverID, e.Amount, e.Status).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

func (r *auditRepo) ListBySender(ctx context.Context, senderID int64) ([]audit.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, transfer_id, sender_id, receiver_id, amount, status, created_at
		FROM audit_log
		WHERE sender_id = $1
		ORDER BY id ASC
	`, senderID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	entries := make([]audit.Entry, 0)

	for rows.Next() {
		var e audit.Entry

		err = rows.Scan(&e.ID, &e.TransferID, &e.SenderID, &e.ReceiverID, &e.Amount, &e.Status, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}

		entries = append(entries, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", err)
	}

	return entries, nil
}
