package outbox

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type heldEvent struct {
	PropertyID string `json:"propertyId"`
}

func (e heldEvent) EventName() string     { return "availability.hold_placed" }
func (e heldEvent) AggregateID() string   { return e.PropertyID }
func (e heldEvent) OccurredAt() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

type sliceOutbox struct {
	records []EventRecord
	err     error
}

func (b *sliceOutbox) Add(ctx context.Context, rec EventRecord) error {
	if b.err != nil {
		return b.err
	}
	b.records = append(b.records, rec)
	return nil
}

func (b *sliceOutbox) Flush(context.Context) error { return nil }

func TestSinkEncodesEvents(t *testing.T) {
	box := &sliceOutbox{}
	sink := Sink{Box: box, Encoder: JSONEventEncoder{IDGenerator: func() string { return "evt-1" }}}
	sink.Publish(context.Background(), heldEvent{PropertyID: "villa-1"})
	if len(box.records) != 1 {
		t.Fatalf("records: got %d, want 1", len(box.records))
	}
	rec := box.records[0]
	if rec.ID != "evt-1" || rec.Name != "availability.hold_placed" || rec.Aggregate != "villa-1" {
		t.Errorf("record: got %+v", rec)
	}
	if string(rec.Payload) != `{"propertyId":"villa-1"}` {
		t.Errorf("payload: got %s", rec.Payload)
	}
}

func TestSinkLogsDroppedEvents(t *testing.T) {
	var logs bytes.Buffer
	box := &sliceOutbox{err: errors.New("outbox collection unavailable")}
	sink := Sink{Box: box, Logger: slog.New(slog.NewTextHandler(&logs, nil))}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Publish(ctx, heldEvent{PropertyID: "villa-1"})
	out := logs.String()
	if !strings.Contains(out, "outbox write failed") || !strings.Contains(out, "availability.hold_placed") {
		t.Errorf("expected dropped event to be logged, got %q", out)
	}
}
