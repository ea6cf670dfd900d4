package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

// RedisFanout publishes events over redis pub/sub, one channel per account.
// Pub/sub gives exactly the contract the ledger wants: subscribers that are
// connected at publish time get the event once, everyone else misses it.
type RedisFanout struct {
	client *redis.Client
}

var (
	_ Fanout     = (*RedisFanout)(nil)
	_ Subscriber = (*RedisFanout)(nil)
)

func NewRedisFanout(client *redis.Client) *RedisFanout {
	return &RedisFanout{client: client}
}

func channelFor(accountID int64) string {
	return fmt.Sprintf("account:%d:events", accountID)
}

func (f *RedisFanout) Publish(ctx context.Context, accountID int64, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = f.client.Publish(ctx, channelFor(accountID), payload).Err()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", channelFor(accountID), err)
	}

	return nil
}

func (f *RedisFanout) Subscribe(ctx context.Context, accountID int64) (<-chan Event, func(), error) {
	sub := f.client.Subscribe(ctx, channelFor(accountID))

	// Force the SUBSCRIBE round-trip so a broken connection surfaces here
	// rather than as a silently dead channel.
	_, err := sub.Receive(ctx)
	if err != nil {
		_ = sub.Close()

		return nil, nil, fmt.Errorf("subscribe %s: %w", channelFor(accountID), err)
	}

	out := make(chan Event, 16)

	go func() {
		defer close(out)

		for msg := range sub.Channel() {
			var ev Event

			err := json.Unmarshal([]byte(msg.Payload), &ev)
			if err != nil {
				slog.Warn("dropping malformed fanout payload", "channel", msg.Channel, "error", err)

				continue
			}

			select {
			case out <- ev:
			default:
				// Slow consumer; at-most-once allows the drop.
			}
		}
	}()

	cancel := func() { _ = sub.Close() }

	return out, cancel, nil
}
