package events

import (
	"context"
	"time"
)

const (
	DocumentUploaded  = "DOCUMENT_UPLOADED"
	DocumentProcessed = "DOCUMENT_PROCESSED"
	DocumentFailed    = "DOCUMENT_FAILED"
	ProjectProcessed  = "PROJECT_PROCESSED"
	ProjectEmbedded   = "PROJECT_EMBEDDED"
	ProjectFailed     = "PROJECT_FAILED"
	ProjectDeleted    = "PROJECT_DELETED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_PROCESSED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher sends events to the bus. A nil-safe no-op is available as NopPublisher.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error {
	return nil
}
