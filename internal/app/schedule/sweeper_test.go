package schedule

import (
	"context"
	"testing"
	"time"

	"rentalspot/internal/app/commands"
	"rentalspot/internal/app/dto"
	holdapp "rentalspot/internal/app/handlers/holds"
	"rentalspot/internal/app/middleware"
)

type sweepCounter struct {
	calls chan struct{}
}

func (s *sweepCounter) Handle(ctx context.Context, cmd holdapp.SweepHoldsCommand) (dto.SweepReport, error) {
	select {
	case s.calls <- struct{}{}:
	default:
	}
	return dto.SweepReport{Scanned: 2, Released: 1}, nil
}

func guardedBus(h *sweepCounter) commands.Bus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, holdapp.SweepHoldsCommand{}.Key(), h)
	return middleware.ChainCommands(bus, middleware.Authorization(middleware.TokenAuthorizer{Token: "secret"}))
}

func TestSweepOnceRunsAsSystem(t *testing.T) {
	h := &sweepCounter{calls: make(chan struct{}, 1)}
	report, err := HoldSweeper{Commands: guardedBus(h)}.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if report.Released != 1 || report.Scanned != 2 {
		t.Errorf("report: got %+v", report)
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	h := &sweepCounter{calls: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- HoldSweeper{Commands: guardedBus(h), Interval: 5 * time.Millisecond}.Run(ctx) }()

	select {
	case <-h.calls:
	case <-time.After(2 * time.Second):
		t.Fatalf("sweep did not run")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: got %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
}

func TestRunDisabledInterval(t *testing.T) {
	if err := (HoldSweeper{}).Run(context.Background()); err != nil {
		t.Errorf("Run: got %v, want nil", err)
	}
}
