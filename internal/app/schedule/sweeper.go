package schedule

import (
	"context"
	"log/slog"
	"time"

	"rentalspot/internal/app/commands"
	"rentalspot/internal/app/dto"
	holdapp "rentalspot/internal/app/handlers/holds"
	"rentalspot/internal/app/middleware"
)

// HoldSweeper dispatches the expired-hold sweep on a fixed interval. A non-positive
// interval disables it; the HTTP cron endpoint still works.
type HoldSweeper struct {
	Commands commands.Bus
	Interval time.Duration
	Logger   *slog.Logger
}

func (s HoldSweeper) Run(ctx context.Context) error {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	if s.Interval <= 0 {
		log.Info("hold sweep ticker disabled")
		return nil
	}
	log.Info("hold sweep ticker started", "interval", s.Interval)
	defer log.Info("hold sweep ticker stopped")
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				log.Error("hold sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce sweeps every property as the system caller.
func (s HoldSweeper) SweepOnce(ctx context.Context) (dto.SweepReport, error) {
	return commands.Dispatch[holdapp.SweepHoldsCommand, dto.SweepReport](middleware.AsSystem(ctx), s.Commands, holdapp.SweepHoldsCommand{})
}
