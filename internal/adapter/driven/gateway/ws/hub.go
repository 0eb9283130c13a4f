package ws

import (
	"context"
	"sync"

	"github.com/classmeet/signaling/internal/core/domain"
	"github.com/classmeet/signaling/internal/core/port"
	"github.com/rs/zerolog/log"
)

// Hub implements port.Gateway: a registry of live connections keyed by
// connection id. It knows nothing about rooms; membership is resolved by the
// caller and arrives here as explicit id lists. There are no cross-entry
// invariants, so a single RWMutex over the map suffices.
type Hub struct {
	mu      sync.RWMutex
	clients map[domain.ConnectionID]port.Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[domain.ConnectionID]port.Client),
	}
}

func (h *Hub) Register(c port.Client) {
	h.mu.Lock()
	h.clients[c.ID()] = c
	count := len(h.clients)
	h.mu.Unlock()

	log.Info().Str("client_id", c.ID()).Int("count", count).Msg("Client registered")
}

func (h *Hub) Unregister(c port.Client) {
	h.mu.Lock()
	_, ok := h.clients[c.ID()]
	if ok {
		delete(h.clients, c.ID())
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.Close()
		log.Info().Str("client_id", c.ID()).Int("count", count).Msg("Client unregistered")
	}
}

func (h *Hub) Unicast(ctx context.Context, to domain.ConnectionID, evt domain.Envelope) bool {
	h.mu.RLock()
	c, ok := h.clients[to]
	h.mu.RUnlock()

	if !ok {
		// Routine race: the target disconnected while the sender was
		// still addressing it. Dropped by design.
		log.Debug().Str("client_id", to).Str("type", string(evt.Type)).Msg("Unicast target gone, dropping")
		return false
	}

	if err := c.Send(evt); err != nil {
		log.Warn().Err(err).Str("client_id", to).Msg("Send failed, disconnecting client")
		h.Unregister(c)
		return false
	}
	return true
}

func (h *Hub) Fanout(ctx context.Context, to []domain.ConnectionID, exclude domain.ConnectionID, evt domain.Envelope) {
	h.mu.RLock()
	targets := make([]port.Client, 0, len(to))
	for _, id := range to {
		if id == exclude {
			continue
		}
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.Send(evt); err != nil {
			log.Warn().Err(err).Str("client_id", c.ID()).Msg("Send failed, disconnecting client")
			h.Unregister(c)
		}
	}
}

// Connections reports the number of registered clients.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop closes every registered connection. Used on shutdown.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Str("client_id", id).Msg("Error closing client connection")
		}
		delete(h.clients, id)
	}
}
