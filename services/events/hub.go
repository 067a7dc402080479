// Package events fans out the database change events to the API's subscribers.
package events

import (
	"sync"

	"github.com/trezcool/portal/core"
)

// DefaultBuffer is the number of events a subscriber may lag behind before events are dropped.
const DefaultBuffer = 64

type subscriber struct {
	ch     chan core.ChangeEvent
	tables map[string]struct{} // empty: all tables
}

func (s subscriber) wants(ev core.ChangeEvent) bool {
	if len(s.tables) == 0 || ev.Op == core.OpResync {
		return true
	}
	_, ok := s.tables[ev.Table]
	return ok
}

// Hub is an in-process core.ChangeNotifier.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]subscriber
	nextID int
	buffer int
	closed bool
	logger core.Logger
}

var _ core.ChangeNotifier = (*Hub)(nil)

func NewHub(logger core.Logger) *Hub {
	return &Hub{
		subs:   make(map[int]subscriber),
		buffer: DefaultBuffer,
		logger: logger,
	}
}

func (h *Hub) Publish(ev core.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if !sub.wants(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.logger.Debug("events: subscriber too slow, event dropped")
		}
	}
}

func (h *Hub) Subscribe(tables ...string) (<-chan core.ChangeEvent, func()) {
	sub := subscriber{
		ch:     make(chan core.ChangeEvent, h.buffer),
		tables: make(map[string]struct{}, len(tables)),
	}
	for _, t := range tables {
		if t != "" {
			sub.tables[t] = struct{}{}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if s, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(s.ch)
			}
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription; their channels are closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
	h.closed = true
}
