package events

import (
	"context"

	"marketplace-service/models"
)

// Publisher delivers moderation events. Publishing is best effort: callers
// log failures and never roll back the state change that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event models.ModerationEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when EVENT_BUS=none.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.ModerationEvent) error { return nil }
func (NoopPublisher) Close() error { return nil }
