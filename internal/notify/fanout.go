// Package notify fans out post-commit ledger events to per-account
// subscribers. Delivery is best-effort and at-most-once: an account with no
// live subscriber simply drops the event, and nothing is queued for
// redelivery.
package notify

import "context"

const (
	EventBalanceUpdate  = "balanceUpdate"
	EventNewTransaction = "newTransaction"
)

// Event is one push message addressed to a single account.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

func BalanceUpdate(balance string) Event {
	return Event{Name: EventBalanceUpdate, Data: balance}
}

func NewTransaction(tr any) Event {
	return Event{Name: EventNewTransaction, Data: tr}
}

// Fanout publishes an event to one account's channel. It must never block
// a transfer's commit; it is invoked only after commit.
type Fanout interface {
	Publish(ctx context.Context, accountID int64, ev Event) error
}

// Subscriber is the receiving side used by push transports. The returned
// cancel func must be called to release the subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, accountID int64) (<-chan Event, func(), error)
}
