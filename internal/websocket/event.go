package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeUpdated EventType = "updated"
	EventTypeFailed  EventType = "failed"
	EventTypeCreated EventType = "created"
	EventTypeExpired EventType = "expired"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeQuote      EntityType = "quote"
	EntityTypeSubmission EntityType = "submission"
	EntityTypeSession    EntityType = "session"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "quote.updated"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "quote"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// QuoteUpdated creates a quote.updated event carrying the refreshed draft
func QuoteUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeQuote, payload)
}

// QuoteFailed creates a quote.failed event; the draft keeps its prior amount
func QuoteFailed(payload interface{}) Event {
	return NewEvent(EventTypeFailed, EntityTypeQuote, payload)
}

// SubmissionCreated creates a submission.created event
func SubmissionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeSubmission, payload)
}

// SessionExpired creates a session.expired event
func SessionExpired(payload interface{}) Event {
	return NewEvent(EventTypeExpired, EntityTypeSession, payload)
}
