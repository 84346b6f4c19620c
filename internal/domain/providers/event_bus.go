package providers

import (
	"context"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// consultation stream events
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.MessageEvent) error

	// Subscribe subscribes to events on a channel. The returned channel is
	// closed when ctx is cancelled or the bus shuts down.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.MessageEvent, error)

	// Unsubscribe tears down a channel and all its subscribers
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelConsultationPrefix is the prefix for per-consultation channels
const EventChannelConsultationPrefix = "consultation:"

// GetConsultationChannel returns the channel name for one consultation's
// message feed.
func GetConsultationChannel(consultationID string) string {
	return EventChannelConsultationPrefix + consultationID
}
