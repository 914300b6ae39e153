package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// MembershipChecker reports whether a user belongs to a child's care team.
// Injected by the caller so the hub stays free of database wiring.
type MembershipChecker func(ctx context.Context, userID, childID string) (bool, error)

// Hub maintains the set of active clients and their child-feed
// subscriptions, and fans feed events out to subscribed collaborators
type Hub struct {
	// Registered clients mapped by user ID
	Clients map[string]*Client

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// feeds maps child ID -> set of subscribed user IDs
	feeds map[string]map[string]struct{}

	isMember MembershipChecker

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(isMember MembershipChecker) *Hub {
	return &Hub{
		Clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		feeds:      make(map[string]map[string]struct{}),
		isMember:   isMember,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// If user already has a connection, close the old one
	if existingClient, ok := h.Clients[client.ID]; ok {
		close(existingClient.Send)
	}

	h.Clients[client.ID] = client

	log.Printf("Client connected: %s", client.ID)
}

// unregisterClient removes a client and drops its feed subscriptions
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.Clients[client.ID]; ok {
		delete(h.Clients, client.ID)
		close(client.Send)

		for childID, subscribers := range h.feeds {
			delete(subscribers, client.ID)
			if len(subscribers) == 0 {
				delete(h.feeds, childID)
			}
		}

		log.Printf("Client disconnected: %s", client.ID)
	}
}

// Subscribe adds a user to a child feed after a membership check
func (h *Hub) Subscribe(ctx context.Context, userID, childID string) error {
	ok, err := h.isMember(ctx, userID, childID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.feeds[childID] == nil {
		h.feeds[childID] = make(map[string]struct{})
	}
	h.feeds[childID][userID] = struct{}{}
	return nil
}

// Unsubscribe removes a user from a child feed
func (h *Hub) Unsubscribe(userID, childID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subscribers, ok := h.feeds[childID]; ok {
		delete(subscribers, userID)
		if len(subscribers) == 0 {
			delete(h.feeds, childID)
		}
	}
}

// BroadcastToFeed sends a message to every online subscriber of a child
// feed, except excludeUserID (usually the author, who already has the data)
func (h *Hub) BroadcastToFeed(childID string, message WSMessage, excludeUserID string) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID := range h.feeds[childID] {
		if userID == excludeUserID {
			continue
		}
		if client, ok := h.Clients[userID]; ok {
			select {
			case client.Send <- data:
			default:
				log.Printf("Failed to send message to client: %s", userID)
			}
		}
	}
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID string, message WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.Clients[userID]; ok {
		data, err := json.Marshal(message)
		if err != nil {
			log.Printf("Failed to marshal message: %v", err)
			return
		}

		select {
		case client.Send <- data:
		default:
			log.Printf("Failed to send message to client: %s", userID)
		}
	}
}

// IsUserOnline checks if a user is currently connected
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.Clients[userID]
	return ok
}

// GetOnlineCount returns the number of currently connected clients
func (h *Hub) GetOnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.Clients)
}

// FeedSubscriberCount returns how many users follow a child feed right now
func (h *Hub) FeedSubscriberCount(childID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.feeds[childID])
}

// NewEvent wraps a payload in the standard envelope
func NewEvent(eventType EventType, payload interface{}) WSMessage {
	return WSMessage{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}
