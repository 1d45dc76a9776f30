package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "rentalspot/internal/app/outbox"
)

type outboxState int

const (
	outboxPending outboxState = iota
	outboxClaimed
)

type outboxEntry struct {
	record    appoutbox.EventRecord
	state     outboxState
	nextAt    time.Time
	claimedBy string
	lastError string
}

// Outbox keeps events in memory and serves them to the relay worker in insertion order.
type Outbox struct {
	mu      sync.Mutex
	entries []*outboxEntry
	notify  chan struct{}
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{notify: make(chan struct{}, 1), now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, &outboxEntry{record: record, nextAt: o.now()})
	return nil
}

// Flush wakes the relay. Records stay until they are marked sent.
func (o *Outbox) Flush(ctx context.Context) error {
	select {
	case o.notify <- struct{}{}:
	default:
	}
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*appoutbox.EventRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, e := range o.entries {
		if e.state != outboxPending || e.nextAt.After(now) {
			continue
		}
		e.state = outboxClaimed
		e.claimedBy = workerID
		rec := e.record
		return &rec, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := o.entries[:0]
	for _, e := range o.entries {
		if e.record.ID == id {
			continue
		}
		kept = append(kept, e)
	}
	o.entries = kept
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.record.ID != id {
			continue
		}
		e.state = outboxPending
		e.nextAt = next
		e.lastError = errMsg
		e.claimedBy = ""
		e.record.Attempts++
	}
	return nil
}

func (o *Outbox) Notify() <-chan struct{} {
	return o.notify
}

// Pending returns the records not yet sent, oldest first.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, 0, len(o.entries))
	for _, e := range o.entries {
		out = append(out, e.record)
	}
	return out
}

var (
	_ appoutbox.Outbox     = (*Outbox)(nil)
	_ appoutbox.RelayStore = (*Outbox)(nil)
)
