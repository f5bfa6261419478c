package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dukerupert/allowance/internal/events"
)

// Hub keeps the connected clients per household and fans ledger events out
// to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	dropped atomic.Int64
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to its household's set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.householdID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.householdID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.householdID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, c.householdID)
		}
	}
	h.mu.Unlock()
}

// Notify delivers e to the clients of e.HouseholdID. It never blocks: a
// client whose buffer is full misses the event.
func (h *Hub) Notify(e events.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("marshal event", "type", e.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[e.HouseholdID] {
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of connected clients across households.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Dropped returns how many deliveries were skipped on full buffers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
