package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"

	"rentalspot/internal/infra/storage/memory"
)

func message(t *testing.T, id, typ string, data any) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"specversion": "1.0", "id": id, "type": typ, "data": data})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &sarama.ConsumerMessage{Topic: "pricing.events.v1", Value: raw}
}

func TestEnvelopeName(t *testing.T) {
	cases := map[string]string{
		"pricing.rules_changed.v1":  "pricing.rules_changed",
		"pricing.rules_changed.v12": "pricing.rules_changed",
		"pricing.rules_changed":     "pricing.rules_changed",
		"pricing.vacation":          "pricing.vacation",
		"pricing.rules.v":           "pricing.rules.v",
	}
	for typ, want := range cases {
		if got := (Envelope{Type: typ}).Name(); got != want {
			t.Errorf("Name(%s): got %s, want %s", typ, got, want)
		}
	}
}

func TestRouterDeliversOnce(t *testing.T) {
	var got []string
	r := Router{
		Inbox: memory.NewInbox(),
		Handlers: map[string]EventFunc{
			"pricing.rules_changed": func(ctx context.Context, data json.RawMessage) error {
				var body struct {
					PropertyID string `json:"propertyId"`
				}
				if err := json.Unmarshal(data, &body); err != nil {
					return err
				}
				got = append(got, body.PropertyID)
				return nil
			},
		},
	}
	msg := message(t, "evt-1", "pricing.rules_changed.v1", map[string]string{"propertyId": "villa-1"})
	for i := 0; i < 2; i++ {
		if err := r.Handle(context.Background(), msg); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}
	if len(got) != 1 || got[0] != "villa-1" {
		t.Errorf("deliveries: got %v, want [villa-1]", got)
	}
}

func TestRouterRetriesFailedHandler(t *testing.T) {
	calls := 0
	r := Router{
		Inbox: memory.NewInbox(),
		Handlers: map[string]EventFunc{
			"pricing.rules_changed": func(ctx context.Context, data json.RawMessage) error {
				calls++
				if calls == 1 {
					return errors.New("store down")
				}
				return nil
			},
		},
	}
	msg := message(t, "evt-2", "pricing.rules_changed.v1", map[string]string{"propertyId": "villa-1"})
	if err := r.Handle(context.Background(), msg); err == nil {
		t.Fatalf("expected handler error")
	}
	if err := r.Handle(context.Background(), msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestRouterAcksMalformedAndUnknown(t *testing.T) {
	r := Router{Handlers: map[string]EventFunc{
		"pricing.rules_changed": func(context.Context, json.RawMessage) error {
			t.Fatalf("handler must not run")
			return nil
		},
	}}
	if err := r.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte("{not json")}); err != nil {
		t.Errorf("malformed: got %v, want nil", err)
	}
	if err := r.Handle(context.Background(), message(t, "", "pricing.rules_changed.v1", nil)); err != nil {
		t.Errorf("missing id: got %v, want nil", err)
	}
	if err := r.Handle(context.Background(), message(t, "evt-3", "listing.created.v1", nil)); err != nil {
		t.Errorf("unknown type: got %v, want nil", err)
	}
}
