package websocket

import (
	"log"

	"github.com/practice-planner/backend/internal/storage/models"
)

// EventBroadcaster pushes calendar change notifications to the owning
// user's dashboard tabs. Events are private to their owner, so every
// message is routed to that user's connections only.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// EventCreated announces a newly persisted event. For a recurring series,
// occurrences is the number of generated siblings saved with the base.
func (b *EventBroadcaster) EventCreated(ev *models.CalendarEvent, occurrences int) {
	b.send(ev.UserID, NewMessage(TypeEventCreated, EventPayload{
		Event:           ev,
		OccurrenceCount: occurrences,
	}))
}

// EventUpdated announces an edit to a single occurrence.
func (b *EventBroadcaster) EventUpdated(ev *models.CalendarEvent) {
	b.send(ev.UserID, NewMessage(TypeEventUpdated, EventPayload{Event: ev}))
}

// EventDeleted announces removal of exactly one of the user's events.
func (b *EventBroadcaster) EventDeleted(userID, eventID string) {
	b.send(userID, NewMessage(TypeEventDeleted, EventDeletedPayload{EventID: eventID}))
}

// SeriesDeleted announces removal of a whole recurring series.
func (b *EventBroadcaster) SeriesDeleted(userID, baseID string, removed int64) {
	b.send(userID, NewMessage(TypeSeriesDeleted, SeriesDeletedPayload{
		BaseID:  baseID,
		Removed: removed,
	}))
}

// ClientChanged announces a mutation of the therapist's client list.
func (b *EventBroadcaster) ClientChanged(userID, clientID, action string) {
	b.send(userID, NewMessage(TypeClientChanged, ClientChangedPayload{
		ClientID: clientID,
		Action:   action,
	}))
}

// Notify sends a notification to one user's connections.
func (b *EventBroadcaster) Notify(userID, level, title, message string) {
	b.send(userID, NewMessage(TypeNotification, NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}))
}

func (b *EventBroadcaster) send(userID string, msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.BroadcastTo(userID, data)
}
