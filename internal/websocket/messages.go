package websocket

import (
	"encoding/json"
	"time"

	"github.com/practice-planner/backend/internal/storage/models"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeEventCreated  MessageType = "event.created"
	TypeEventUpdated  MessageType = "event.updated"
	TypeEventDeleted  MessageType = "event.deleted"
	TypeSeriesDeleted MessageType = "event.series_deleted"
	TypeClientChanged MessageType = "client.changed"
	TypeNotification  MessageType = "notification"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage deserializes a message received from a client.
func ParseMessage(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}

// EventPayload is the payload for event.created and event.updated.
// Receiving tabs use it to resync their in-memory event set.
type EventPayload struct {
	Event *models.CalendarEvent `json:"event"`
	// OccurrenceCount is set on event.created for recurring series:
	// the number of generated occurrences persisted alongside the base.
	OccurrenceCount int `json:"occurrence_count,omitempty"`
}

// EventDeletedPayload is the payload for event.deleted.
type EventDeletedPayload struct {
	EventID string `json:"event_id"`
}

// SeriesDeletedPayload is the payload for event.series_deleted.
type SeriesDeletedPayload struct {
	BaseID  string `json:"base_id"`
	Removed int64  `json:"removed"`
}

// ClientChangedPayload is the payload for client.changed.
type ClientChangedPayload struct {
	ClientID string `json:"client_id"`
	Action   string `json:"action"` // created, updated, deleted
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
