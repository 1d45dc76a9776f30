package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	appoutbox "rentalspot/internal/app/outbox"
	"rentalspot/internal/infra/storage/memory"
)

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	mu       sync.Mutex
	fail     int
	messages []published
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail > 0 {
		p.fail--
		return errors.New("broker down")
	}
	p.messages = append(p.messages, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func addRecord(t *testing.T, box *memory.Outbox, id, name string) {
	t.Helper()
	err := box.Add(context.Background(), appoutbox.EventRecord{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"property_id":"villa-1"}`),
		OccurredAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Aggregate:  "villa-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
}

func TestDrainPublishesCloudEvents(t *testing.T) {
	box := memory.NewOutbox()
	addRecord(t, box, "e1", "availability.hold_placed")
	addRecord(t, box, "e2", "holds.price_drift_detected")
	prod := &fakeProducer{}
	w := &Worker{Store: box, Producer: prod, TopicPrefix: "dev.", ID: "w1"}

	if err := w.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(prod.messages) != 2 {
		t.Fatalf("messages: got %d, want 2", len(prod.messages))
	}
	if got := prod.messages[0].topic; got != "dev.availability.events.v1" {
		t.Errorf("topic: got %s, want dev.availability.events.v1", got)
	}
	if got := prod.messages[1].topic; got != "dev.holds.events.v1" {
		t.Errorf("topic: got %s, want dev.holds.events.v1", got)
	}
	var evt map[string]any
	if err := json.Unmarshal(prod.messages[0].payload, &evt); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if evt["type"] != "availability.hold_placed.v1" || evt["id"] != "e1" || evt["source"] != "app://rentalspot" {
		t.Errorf("envelope: got %v", evt)
	}
	if evt["traceparent"] != "00-abc-def-01" {
		t.Errorf("traceparent: got %v", evt["traceparent"])
	}
	if prod.messages[0].headers["content-type"] != "application/cloudevents+json" {
		t.Errorf("headers: got %v", prod.messages[0].headers)
	}
	if pending := box.Pending(); len(pending) != 0 {
		t.Errorf("pending after drain: got %d, want 0", len(pending))
	}
}

func TestDrainParksFailedRecords(t *testing.T) {
	box := memory.NewOutbox()
	addRecord(t, box, "e1", "availability.hold_placed")
	prod := &fakeProducer{fail: 1}
	w := &Worker{Store: box, Producer: prod, Backoff: []time.Duration{time.Hour}, ID: "w1"}

	if err := w.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(prod.messages) != 0 {
		t.Fatalf("messages: got %d, want 0", len(prod.messages))
	}
	pending := box.Pending()
	if len(pending) != 1 || pending[0].Attempts != 1 {
		t.Fatalf("pending: got %+v, want one record with 1 attempt", pending)
	}
	// not due again until the backoff elapses
	if err := w.Drain(context.Background()); err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if len(prod.messages) != 0 {
		t.Errorf("record retried before its backoff")
	}
}

func TestRunWakesOnFlush(t *testing.T) {
	box := memory.NewOutbox()
	prod := &fakeProducer{}
	w := &Worker{Store: box, Producer: prod, Interval: time.Hour, ID: "w1"}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	addRecord(t, box, "e1", "availability.booking_confirmed")
	_ = box.Flush(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		prod.mu.Lock()
		n := len(prod.messages)
		prod.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	prod.mu.Lock()
	defer prod.mu.Unlock()
	if len(prod.messages) != 1 {
		t.Errorf("messages: got %d, want 1", len(prod.messages))
	}
}

func TestRunRequiresDependencies(t *testing.T) {
	if err := (&Worker{}).Run(context.Background()); !errors.Is(err, ErrWorkerNotConfigured) {
		t.Errorf("run: got %v, want ErrWorkerNotConfigured", err)
	}
}
