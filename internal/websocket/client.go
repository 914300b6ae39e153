package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// ErrNotMember is returned when a user subscribes to a feed they are not a
// collaborator on
var ErrNotMember = errors.New("not a member of this care team")

// Client represents a WebSocket client connection
type Client struct {
	ID   string // User ID
	Name string // Display name, echoed in typing events
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte
}

// NewClient creates a new WebSocket client
func NewClient(userID, name string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:   userID,
		Name: name,
		Conn: conn,
		Hub:  hub,
		Send: make(chan []byte, 256),
	}
}

// ReadPump handles incoming messages from the client
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Parse incoming message
		var incoming IncomingMessage
		if err := json.Unmarshal(message, &incoming); err != nil {
			log.Printf("Failed to parse message: %v", err)
			continue
		}

		c.handleIncomingMessage(incoming)
	}
}

// WritePump handles outgoing messages to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleIncomingMessage processes different types of incoming messages
func (c *Client) handleIncomingMessage(msg IncomingMessage) {
	childID, _ := msg.Payload["childId"].(string)

	switch msg.Type {
	case EventSubscribe:
		c.handleSubscribe(childID)
	case EventUnsubscribe:
		c.handleUnsubscribe(childID)
	case EventTypingStart, EventTypingStop:
		c.handleTyping(msg.Type, childID)
	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// handleSubscribe joins a child feed if the user is on its care team
func (c *Client) handleSubscribe(childID string) {
	if childID == "" {
		c.sendError("bad_request", "childId is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Hub.Subscribe(ctx, c.ID, childID); err != nil {
		if errors.Is(err, ErrNotMember) {
			c.sendError("forbidden", "You are not a collaborator on this child")
		} else {
			c.sendError("internal", "Failed to subscribe to feed")
		}
		return
	}

	c.SendEvent(NewEvent(EventSubscribed, FeedPayload{ChildID: childID}))
}

// handleUnsubscribe leaves a child feed
func (c *Client) handleUnsubscribe(childID string) {
	if childID == "" {
		return
	}
	c.Hub.Unsubscribe(c.ID, childID)
	c.SendEvent(NewEvent(EventUnsubscribed, FeedPayload{ChildID: childID}))
}

// handleTyping relays typing indicators to the child's other subscribers
func (c *Client) handleTyping(eventType EventType, childID string) {
	if childID == "" {
		return
	}

	message := NewEvent(eventType, TypingPayload{
		ChildID:  childID,
		UserID:   c.ID,
		UserName: c.Name,
	})

	c.Hub.BroadcastToFeed(childID, message, c.ID)
}

// sendError reports a client-level problem back over the socket
func (c *Client) sendError(code, msg string) {
	c.SendEvent(NewEvent(EventError, ErrorPayload{Code: code, Message: msg}))
}

// SendEvent sends a message to the client
func (c *Client) SendEvent(msg WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
	default:
		close(c.Send)
		c.Hub.Unregister <- c
	}

	return nil
}
