package websocket

import "time"

// EventType represents different WebSocket event types
type EventType string

const (
	// Feed subscription events
	EventSubscribe    EventType = "subscribe"
	EventUnsubscribe  EventType = "unsubscribe"
	EventSubscribed   EventType = "subscribed"
	EventUnsubscribed EventType = "unsubscribed"

	// Feed message events
	EventMessageCreated EventType = "message_created"
	EventMessageEdited  EventType = "message_edited"
	EventMessageDeleted EventType = "message_deleted"

	// Direct notification when a user is @-mentioned
	EventMentioned EventType = "mentioned"

	// Typing events
	EventTypingStart EventType = "typing_start"
	EventTypingStop  EventType = "typing_stop"

	// Error events
	EventError EventType = "error"
)

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// FeedPayload identifies which child feed an event belongs to
type FeedPayload struct {
	ChildID string `json:"childId"`
}

// TypingPayload represents typing indicator payload
type TypingPayload struct {
	ChildID  string `json:"childId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

// ErrorPayload represents error event payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IncomingMessage represents messages received from clients
type IncomingMessage struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}
