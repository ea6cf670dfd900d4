package transfers

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const StatusSuccess = "SUCCESS"

// Transfer is an immutable record of a committed funds movement. Failed
// attempts never produce one; they only appear in the audit log.
type Transfer struct {
	ID         uuid.UUID `json:"id"`
	SenderID   int64     `json:"senderId"`
	ReceiverID int64     `json:"receiverId"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Party is the denormalized account info attached to history entries.
type Party struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type HistoryEntry struct {
	Transfer
	Sender   Party `json:"sender"`
	Receiver Party `json:"receiver"`
}

type Transfers interface {
	// Insert writes the record inside the transfer's atomic scope.
	Insert(tx *sql.Tx, tr *Transfer) error
	// ListByAccount returns committed transfers where the account is
	// sender or receiver, newest first, ties broken by insertion order.
	ListByAccount(ctx context.Context, accountID int64) ([]HistoryEntry, error)
}
