package shared

import (
	"context"

	"github.com/google/uuid"
)

// EventHandler handles domain events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types the handler wants; empty means all
	EventTypes() []string
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus combines publishing with subscription management
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// PublishAndClear publishes the aggregate's pending events and clears them.
// A nil publisher drops the events.
func PublishAndClear(ctx context.Context, publisher EventPublisher, agg AggregateRoot) error {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return nil
	}
	return publisher.Publish(ctx, events...)
}

type actorSetter interface {
	SetActor(userID uuid.UUID)
}

// StampActor records userID as the actor of every pending event on agg
func StampActor(agg AggregateRoot, userID uuid.UUID) {
	for _, e := range agg.GetDomainEvents() {
		if s, ok := e.(actorSetter); ok {
			s.SetActor(userID)
		}
	}
}
