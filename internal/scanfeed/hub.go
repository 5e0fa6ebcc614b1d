// Package scanfeed fans NFC scan events out to connected admin consoles.
// Events are ephemeral: subscribers joining late see only what arrives
// after they join, and a slow consumer loses events rather than slowing
// the feed for everyone else.
package scanfeed

import (
	"sync"

	"bandpay/internal/core/domain"

	"github.com/rs/zerolog"
)

const subscriberBuffer = 16

// Hub is an in-process broadcast channel for scan events.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan domain.ScanEvent
	nextID uint64
	closed bool
	log    zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[uint64]chan domain.ScanEvent),
		log:  log,
	}
}

// Publish delivers an event to every current subscriber. Subscribers whose
// buffer is full are skipped; Publish never blocks.
func (h *Hub) Publish(event domain.ScanEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.log.Warn().
				Uint64("subscriber", id).
				Str("band_id", event.BandID).
				Msg("scan feed subscriber too slow, dropping event")
		}
	}
}

// Subscribe registers a new consumer. The returned cancel func must be
// called when the consumer goes away; after cancel the channel is closed.
func (h *Hub) Subscribe() (<-chan domain.ScanEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan domain.ScanEvent, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// SubscriberCount reports how many consumers are attached.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close tears down the hub and closes every subscriber channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
