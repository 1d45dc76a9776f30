package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"rentalspot/internal/app/commands"
	"rentalspot/internal/app/outbox"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type countingCommand struct {
	key string
}

func (c countingCommand) Key() string            { return "test.count" }
func (c countingCommand) IdempotencyKey() string { return c.key }
func (c countingCommand) ResultPrototype() any   { return new(int) }

type sweepCommand struct{}

func (sweepCommand) Key() string { return "test.sweep" }
func (sweepCommand) Internal()   {}

type recordStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (s *recordStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *recordStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = map[string]IdempotencyRecord{}
	}
	s.items[rec.Key] = rec
	return nil
}

// brokenStore reads nothing back and fails every save.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (IdempotencyRecord, bool, error) {
	return IdempotencyRecord{}, false, nil
}

func (brokenStore) Save(context.Context, IdempotencyRecord) error {
	return errors.New("idempotency collection unavailable")
}

type stuckOutbox struct{ adds int }

func (b *stuckOutbox) Add(context.Context, outbox.EventRecord) error {
	b.adds++
	return nil
}

func (b *stuckOutbox) Flush(context.Context) error {
	return errors.New("relay signal lost")
}

func TestChainOrderOutermostFirst(t *testing.T) {
	var trace []string
	tag := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				trace = append(trace, name)
				return next.Dispatch(ctx, cmd)
			})
		}
	}
	base := commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		trace = append(trace, "handler")
		return nil, nil
	})
	bus := ChainCommands(base, tag("a"), tag("b"))
	if _, err := bus.Dispatch(context.Background(), sweepCommand{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(trace) != 3 || trace[0] != "a" || trace[1] != "b" || trace[2] != "handler" {
		t.Errorf("order: got %v", trace)
	}
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	calls := 0
	base := commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return calls * 10, nil
	})
	bus := ChainCommands(base, Idempotency(&recordStore{}, nil, discard))
	ctx := context.Background()

	first, err := bus.Dispatch(ctx, countingCommand{key: "k1"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := bus.Dispatch(ctx, countingCommand{key: "k1"})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first != 10 || second != 10 || calls != 1 {
		t.Errorf("replay: got %v/%v after %d calls, want 10/10 after 1", first, second, calls)
	}
	if _, err := bus.Dispatch(ctx, countingCommand{}); err != nil || calls != 2 {
		t.Errorf("keyless command should run: calls=%d err=%v", calls, err)
	}
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	fail := true
	calls := 0
	base := commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		if fail {
			return nil, errors.New("conflict")
		}
		return 7, nil
	})
	bus := ChainCommands(base, Idempotency(&recordStore{}, nil, discard))
	ctx := context.Background()
	if _, err := bus.Dispatch(ctx, countingCommand{key: "k"}); err == nil {
		t.Fatalf("expected failure")
	}
	fail = false
	got, err := bus.Dispatch(ctx, countingCommand{key: "k"})
	if err != nil || got != 7 || calls != 2 {
		t.Errorf("retry: got %v err=%v calls=%d, want 7 after 2 calls", got, err, calls)
	}
}

func TestTokenAuthorizer(t *testing.T) {
	a := TokenAuthorizer{Token: "secret"}
	ctx := context.Background()
	cases := []struct {
		name    string
		ctx     context.Context
		message any
		wantErr bool
	}{
		{"public command", ctx, countingCommand{}, false},
		{"internal without token", ctx, sweepCommand{}, true},
		{"internal wrong token", WithCallerToken(ctx, "nope"), sweepCommand{}, true},
		{"internal right token", WithCallerToken(ctx, "secret"), sweepCommand{}, false},
		{"internal as system", AsSystem(ctx), sweepCommand{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := a.Authorize(tc.ctx, tc.message)
			if (err != nil) != tc.wantErr {
				t.Errorf("got %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrForbidden) {
				t.Errorf("got %v, want ErrForbidden", err)
			}
		})
	}
	if err := (TokenAuthorizer{}).Authorize(WithCallerToken(ctx, ""), sweepCommand{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("empty configured token: got %v, want ErrForbidden", err)
	}
}

func TestIdempotencySaveFailureKeepsCommittedResult(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	calls := 0
	base := commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return 42, nil
	})
	bus := ChainCommands(base, Idempotency(brokenStore{}, nil, logger))
	got, err := bus.Dispatch(context.Background(), countingCommand{key: "confirm-1"})
	if err != nil {
		t.Fatalf("dispatch: got %v, want committed result", err)
	}
	if got != 42 || calls != 1 {
		t.Errorf("result: got %v after %d calls, want 42 after 1", got, calls)
	}
	if !strings.Contains(logs.String(), "idempotency result not stored") {
		t.Errorf("expected warning, got %q", logs.String())
	}
}

func TestOutboxFlushFailureKeepsCommittedResult(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	box := &stuckOutbox{}
	base := commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		_ = box.Add(ctx, outbox.EventRecord{})
		return "hold-1", nil
	})
	bus := ChainCommands(base, OutboxFlush(box, logger))
	got, err := bus.Dispatch(context.Background(), countingCommand{})
	if err != nil {
		t.Fatalf("dispatch: got %v, want committed result", err)
	}
	if got != "hold-1" || box.adds != 1 {
		t.Errorf("result: got %v with %d events, want hold-1 with 1", got, box.adds)
	}
	if !strings.Contains(logs.String(), "outbox flush failed") {
		t.Errorf("expected warning, got %q", logs.String())
	}

	failing := ChainCommands(commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		return nil, errors.New("conflict")
	}), OutboxFlush(box, logger))
	if _, err := failing.Dispatch(context.Background(), countingCommand{}); err == nil {
		t.Error("handler error must pass through")
	}
}
