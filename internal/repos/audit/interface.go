// Package audit defines the append-only log of transfer attempts. One
// entry exists per attempt, success or failure; entries are never updated
// or deleted.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry describes one transfer attempt. TransferID is set only when the
// attempt committed. A nil ReceiverID means the receiver could not be
// resolved.
type Entry struct {
	ID         int64
	TransferID *uuid.UUID
	SenderID   int64
	ReceiverID *int64
	Amount     int64
	Status     string // "SUCCESS" or "FAILED: <reason>"
	CreatedAt  time.Time
}

// Recorder appends entries on the bare DB handle, never inside the
// transfer's transaction, so a rollback cannot take the audit row with it.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
	ListBySender(ctx context.Context, senderID int64) ([]Entry, error)
}
