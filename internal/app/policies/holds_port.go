package policies

import (
	"context"
	"time"

	"rentalspot/internal/app/services/holds"
	"rentalspot/internal/domain/availability"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

type HoldPort interface {
	PlaceHold(ctx context.Context, req holds.PlaceRequest) (availability.PlacedHold, error)
	Release(ctx context.Context, id property.ID, holdID availability.HoldID) error
	Confirm(ctx context.Context, req holds.ConfirmRequest) (holds.Confirmation, error)
	Sweep(ctx context.Context, id property.ID, now time.Time) (availability.SweepReport, error)
}

// AvailabilityView is the read side of the ledger.
type AvailabilityView interface {
	MonthView(ctx context.Context, id property.ID, ym daterange.YearMonth) ([]availability.DayStatus, error)
}

var (
	_ HoldPort         = (*holds.Manager)(nil)
	_ AvailabilityView = (*availability.Ledger)(nil)
)
