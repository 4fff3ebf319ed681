package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a real-time sync notification delivered to the members of
// one household.
type Message struct {
	Type        string         `json:"type"`
	Entity      string         `json:"entity"`
	Action      string         `json:"action"`
	ID          string         `json:"id,omitempty"`
	HouseholdID string         `json:"household_id"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity
// and action.
func NewMessage(householdID, entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:        fmt.Sprintf("%s_%s", entity, action),
		Entity:      entity,
		Action:      action,
		ID:          id,
		HouseholdID: householdID,
		Extra:       extra,
	}
}

// Hub tracks connected clients by household room and broadcasts
// messages to a single room at a time. A client joins one room per
// household it belongs to.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	logger *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client to the rooms of its households.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	for _, hid := range c.households {
		room, ok := h.rooms[hid]
		if !ok {
			room = make(map[*Client]struct{})
			h.rooms[hid] = room
		}
		room[c] = struct{}{}
	}
	h.mu.Unlock()
}

// Unregister removes a client from all rooms and closes its send
// channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	removed := false
	for _, hid := range c.households {
		room, ok := h.rooms[hid]
		if !ok {
			continue
		}
		if _, ok := room[c]; ok {
			delete(room, c)
			removed = true
		}
		if len(room) == 0 {
			delete(h.rooms, hid)
		}
	}
	if removed {
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to every client in the household's room.
func (h *Hub) Broadcast(householdID string, msg Message) {
	msg.HouseholdID = householdID
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[householdID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop the message
		}
	}
}

// RoomCount returns the number of clients connected for a household.
func (h *Hub) RoomCount(householdID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[householdID])
}
