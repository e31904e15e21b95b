package mocks

import (
	"context"
	"fmt"

	"gitlab.com/ucmsv2/accounts/internal/domain/event"
)

// EventBus records published events in memory. It satisfies the publisher
// side of *cqrs.EventBus.
type EventBus struct {
	*EventRepo
	*Faults
}

func NewEventBus() *EventBus {
	return &EventBus{
		EventRepo: NewEventRepo(),
		Faults:    NewFaults(),
	}
}

func (b *EventBus) Publish(ctx context.Context, e any) error {
	if err := b.Fault("Publish"); err != nil {
		return err
	}
	evt, ok := e.(event.Event)
	if !ok {
		return fmt.Errorf("event %T does not implement event.Event", e)
	}
	b.appendEvents(evt)
	return nil
}
