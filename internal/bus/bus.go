// Package bus provides event bus implementations for publishing parse events.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g., "statute.parsed").
	Type string `json:"type"`

	// Source is the component that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created (Unix milliseconds).
	Timestamp int64 `json:"timestamp"`

	// CorrelationID links related events, e.g. the chunks of one document.
	CorrelationID string `json:"correlation_id,omitempty"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// NewEvent creates an event of the given type with a fresh ID and timestamp.
func NewEvent(eventType, source, correlationID string, payload any) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UnixMilli(),
		CorrelationID: correlationID,
		Payload:       payload,
	}
}

// Topics for statute events.
const (
	// TopicStatuteParsed carries one summary per parsed document.
	TopicStatuteParsed = "statute.parsed"

	// TopicChunkCreated carries one article chunk.
	TopicChunkCreated = "statute.chunk.created"

	// TopicStatuteRemoved is published when a source document disappears.
	TopicStatuteRemoved = "statute.removed"
)
