package events

import (
	"context"
	"time"
)

type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder buffers events raised by an aggregate or service until they are drained
// into the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}

// Drain returns pending events and clears the buffer.
func (r *EventRecorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}

// Sink receives events once the change that raised them is committed. Delivery failures
// are the sink's concern.
type Sink interface {
	Publish(ctx context.Context, events ...DomainEvent)
}

type SinkFunc func(ctx context.Context, events ...DomainEvent)

func (f SinkFunc) Publish(ctx context.Context, events ...DomainEvent) { f(ctx, events...) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, ...DomainEvent) {})
