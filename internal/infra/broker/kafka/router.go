package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"
)

var ErrMalformedEvent = errors.New("kafka: malformed cloudevent")

// Envelope is the cloudevents shape written by the outbox relay.
type Envelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Name strips the schema version suffix from Type.
func (e Envelope) Name() string {
	i := strings.LastIndex(e.Type, ".v")
	if i <= 0 || i+2 == len(e.Type) {
		return e.Type
	}
	for _, r := range e.Type[i+2:] {
		if r < '0' || r > '9' {
			return e.Type
		}
	}
	return e.Type[:i]
}

type EventFunc func(ctx context.Context, data json.RawMessage) error

// Inbox records consumed event ids. Forget undoes Seen after a failed handler so the
// redelivered event runs again.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Router decodes cloudevents and hands each known event to its handler once. Unknown
// event types are acknowledged and skipped.
type Router struct {
	Inbox    Inbox
	Handlers map[string]EventFunc
	Logger   *slog.Logger
}

func (r Router) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil || env.ID == "" || env.Type == "" {
		// poison messages are acknowledged, redelivery would not fix them
		r.logger().Warn("dropping malformed event", "topic", msg.Topic, "offset", msg.Offset, "error", errors.Join(ErrMalformedEvent, err))
		return nil
	}
	handle, ok := r.Handlers[env.Name()]
	if !ok {
		return nil
	}
	if r.Inbox != nil {
		seen, err := r.Inbox.Seen(ctx, env.ID)
		if err != nil {
			return fmt.Errorf("inbox %s: %w", env.ID, err)
		}
		if seen {
			r.logger().Debug("duplicate event skipped", "event_id", env.ID, "type", env.Type)
			return nil
		}
	}
	if err := handle(ctx, env.Data); err != nil {
		err = fmt.Errorf("%s %s: %w", env.Name(), env.ID, err)
		if r.Inbox != nil {
			if ferr := r.Inbox.Forget(context.WithoutCancel(ctx), env.ID); ferr != nil {
				err = errors.Join(err, ferr)
			}
		}
		return err
	}
	return nil
}

func (r Router) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
