package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentalspot/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
	Attempts   int
}

// Outbox stores events for relay. Flush signals the relay that new records are waiting.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// RelayStore is the outbox side read by the relay worker. Claim returns nil when nothing
// is due.
type RelayStore interface {
	Claim(ctx context.Context, workerID string) (*EventRecord, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
	Notify() <-chan struct{}
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Sink writes published domain events into the outbox. The state change that raised
// them is already committed, so a failed write is logged and dropped: ledger events are
// delivered at most once. Consumers that need the current state read the ledger.
type Sink struct {
	Box     Outbox
	Encoder EventEncoder
	Logger  *slog.Logger
}

func (s Sink) Publish(ctx context.Context, evs ...events.DomainEvent) {
	if err := RecordDomainEvents(context.WithoutCancel(ctx), s.Box, s.Encoder, evs); err != nil && s.Logger != nil {
		names := make([]string, 0, len(evs))
		for _, ev := range evs {
			names = append(names, ev.EventName())
		}
		s.Logger.Error("outbox write failed", "events", names, "error", err)
	}
}

var _ events.Sink = Sink{}
