// Package hub fans session-change events out to in-process subscribers and
// to the sockjs relay endpoint.
package hub

import (
	"log"
	"sync"
	"time"

	"tidyhome/auth-service/internal/models"
)

const (
	EventSignedIn  = "session.signed_in"
	EventSignedOut = "session.signed_out"
)

type Event struct {
	Type      string          `json:"type"`
	ProfileID string          `json:"profile_id"`
	Session   *models.Session `json:"session,omitempty"`
	At        time.Time       `json:"at"`
}

type Client struct {
	ID   string
	Send chan Event
	// ProfileID filters delivery to one profile's events; empty receives all.
	ProfileID string
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.ProfileID != "" && client.ProfileID != event.ProfileID {
			continue
		}
		select {
		case client.Send <- event:
		default:
			log.Printf("drop session event for client %s", client.ID)
		}
	}
}
