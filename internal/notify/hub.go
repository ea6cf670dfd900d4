package notify

import (
	"context"
	"sync"
)

// Hub is an in-process fanout for single-node deployments and tests. It
// mirrors the redis semantics: no subscriber, no delivery; slow
// subscribers lose events instead of blocking the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[*subscription]struct{}
}

type subscription struct {
	ch chan Event
}

var (
	_ Fanout     = (*Hub)(nil)
	_ Subscriber = (*Hub)(nil)
)

func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[*subscription]struct{})}
}

func (h *Hub) Publish(_ context.Context, accountID int64, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[accountID] {
		select {
		case s.ch <- ev:
		default:
		}
	}

	return nil
}

func (h *Hub) Subscribe(_ context.Context, accountID int64) (<-chan Event, func(), error) {
	s := &subscription{ch: make(chan Event, 16)}

	h.mu.Lock()
	if h.subs[accountID] == nil {
		h.subs[accountID] = make(map[*subscription]struct{})
	}

	h.subs[accountID][s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once

	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[accountID], s)

			if len(h.subs[accountID]) == 0 {
				delete(h.subs, accountID)
			}
			h.mu.Unlock()

			close(s.ch)
		})
	}

	return s.ch, cancel, nil
}
