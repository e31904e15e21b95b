package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain fact published through the outbox. The stream name selects
// the watermill topic it is written to.
type Event interface {
	GetEventHeader() Header
	GetStreamName() string
}

type Header struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (h *Header) GetEventHeader() Header {
	return *h
}

func NewEventHeader() Header {
	return Header{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
	}
}

// Recorder collects events raised by an aggregate until its repository commits them.
type Recorder struct {
	events []Event
}

func (r *Recorder) AddEvent(e Event) {
	if r == nil {
		return
	}
	r.events = append(r.events, e)
}

func (r *Recorder) GetUncommittedEvents() []Event {
	if r == nil {
		return nil
	}
	return r.events
}

func (r *Recorder) MarkEventsAsCommitted() {
	if r == nil {
		return
	}
	r.events = nil
}
