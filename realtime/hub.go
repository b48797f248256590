package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"learnledger/core"
)

// Hub fans ledger events out to subscriber channels. Slow subscribers drop
// events rather than stall the ledger.
type Hub struct {
	mu      sync.RWMutex
	streams map[int]chan core.Event
	lastID  int
}

func NewHub() *Hub {
	return &Hub{streams: make(map[int]chan core.Event)}
}

// Subscribe opens a buffered event stream. The returned id releases the
// stream via Unsubscribe; the channel is closed on unsubscribe.
func (h *Hub) Subscribe(buffer int) (int, <-chan core.Event) {
	if buffer <= 0 {
		buffer = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastID++
	ch := make(chan core.Event, buffer)
	h.streams[h.lastID] = ch
	return h.lastID, ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.streams[id]; ok {
		delete(h.streams, id)
		close(ch)
	}
}

// Subscribers reports the number of open streams.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams)
}

// Broadcast delivers an event to every stream with room in its buffer.
func (h *Hub) Broadcast(_ context.Context, ev core.Event) {
	h.mu.RLock()
	receivers := make([]chan core.Event, 0, len(h.streams))
	for _, ch := range h.streams {
		receivers = append(receivers, ch)
	}
	h.mu.RUnlock()

	for _, ch := range receivers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// MarshalJSON renders an event for WebSocket or SSE transport.
func MarshalJSON(ev core.Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}
