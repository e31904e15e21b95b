package mocks

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/ucmsv2/accounts/internal/domain/event"
)

// EventRepo collects the events a mock store or bus has committed.
type EventRepo struct {
	events   []event.Event
	eventsMu sync.Mutex
	eventCh  chan event.Event
}

func NewEventRepo() *EventRepo {
	return &EventRepo{
		events:  []event.Event{},
		eventCh: make(chan event.Event, 100),
	}
}

func (r *EventRepo) EventChannel() <-chan event.Event {
	return r.eventCh
}

func (r *EventRepo) Events() []event.Event {
	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()

	eventsCopy := make([]event.Event, len(r.events))
	copy(eventsCopy, r.events)
	return eventsCopy
}

func (r *EventRepo) AssertEventCount(t *testing.T, expectedCount int) *EventRepo {
	t.Helper()

	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()

	assert.Len(t, r.events, expectedCount, "unexpected committed event count")
	return r
}

func (r *EventRepo) AssertEventNotExists(t *testing.T, e event.Event) *EventRepo {
	t.Helper()

	for _, ev := range r.Events() {
		if sameEventType(ev, e) {
			t.Errorf("event %T should not have been committed", e)
			break
		}
	}
	return r
}

func (r *EventRepo) appendEvents(events ...event.Event) {
	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()

	for _, e := range events {
		r.events = append(r.events, e)
		select {
		case r.eventCh <- e:
		default:
			// nobody is draining the channel; Events still has it
		}
	}
}

// RequireEventExists returns the first committed event with the same
// concrete type as e.
func RequireEventExists[T event.Event](t *testing.T, r *EventRepo, e T) T {
	t.Helper()

	for _, ev := range r.Events() {
		if !sameEventType(ev, e) {
			continue
		}
		found, ok := ev.(T)
		if !ok {
			t.Fatalf("event %T has an unexpected type %T", e, ev)
		}
		assert.NotEmpty(t, found.GetEventHeader().ID, "event header should carry an id")
		return found
	}

	t.Fatalf("event %T was not committed", e)
	var zero T
	return zero
}

func sameEventType(a, b event.Event) bool {
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}
