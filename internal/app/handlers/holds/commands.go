package holds

import (
	"context"
	"strings"
	"time"

	"rentalspot/internal/app/commands"
	"rentalspot/internal/app/dto"
	"rentalspot/internal/app/handlers/support"
	"rentalspot/internal/app/policies"
	svcholds "rentalspot/internal/app/services/holds"
	"rentalspot/internal/domain/availability"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/money"
)

const (
	placeHoldKey      = "holds.place"
	releaseHoldKey    = "holds.release"
	confirmBookingKey = "holds.confirm"
	sweepHoldsKey     = "holds.sweep"
)

type PlaceHoldCommand struct {
	PropertyID      string
	CheckIn         string
	CheckOut        string
	BookingRef      string
	Contact         string
	TTL             time.Duration
	IdempotencyKeyV string
}

func (c PlaceHoldCommand) Key() string            { return placeHoldKey }
func (c PlaceHoldCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c PlaceHoldCommand) ResultPrototype() any   { return &dto.Hold{} }

func (c PlaceHoldCommand) Validate() error {
	if strings.TrimSpace(c.BookingRef) == "" {
		return support.Invalid("booking_ref is required")
	}
	if c.TTL < 0 {
		return support.Invalid("ttl must not be negative")
	}
	return nil
}

type PlaceHoldHandler struct {
	Holds policies.HoldPort
}

func (h *PlaceHoldHandler) Handle(ctx context.Context, cmd PlaceHoldCommand) (dto.Hold, error) {
	id, err := support.PropertyID(cmd.PropertyID)
	if err != nil {
		return dto.Hold{}, err
	}
	dr, err := support.StayRange(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return dto.Hold{}, err
	}
	placed, err := h.Holds.PlaceHold(ctx, svcholds.PlaceRequest{
		PropertyID: id,
		Range:      dr,
		BookingRef: strings.TrimSpace(cmd.BookingRef),
		Contact:    strings.TrimSpace(cmd.Contact),
		TTL:        cmd.TTL,
	})
	if err != nil {
		return dto.Hold{}, err
	}
	return dto.MapHold(placed), nil
}

type ReleaseHoldCommand struct {
	PropertyID string
	HoldID     string
}

func (c ReleaseHoldCommand) Key() string { return releaseHoldKey }

type ReleaseResult struct {
	HoldID   string `json:"hold_id"`
	Released bool   `json:"released"`
}

type ReleaseHoldHandler struct {
	Holds policies.HoldPort
}

func (h *ReleaseHoldHandler) Handle(ctx context.Context, cmd ReleaseHoldCommand) (ReleaseResult, error) {
	id, err := support.PropertyID(cmd.PropertyID)
	if err != nil {
		return ReleaseResult{}, err
	}
	holdID := availability.HoldID(strings.TrimSpace(cmd.HoldID))
	if _, err := holdID.Parse(); err != nil {
		return ReleaseResult{}, support.Invalid("%v", err)
	}
	if err := h.Holds.Release(ctx, id, holdID); err != nil {
		return ReleaseResult{}, err
	}
	return ReleaseResult{HoldID: string(holdID), Released: true}, nil
}

type ConfirmBookingCommand struct {
	PropertyID      string
	CheckIn         string
	CheckOut        string
	BookingRef      string
	Guests          int
	ShownTotal      string
	Currency        string
	IdempotencyKeyV string
}

func (c ConfirmBookingCommand) Key() string            { return confirmBookingKey }
func (c ConfirmBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c ConfirmBookingCommand) ResultPrototype() any   { return &dto.Confirmation{} }

func (c ConfirmBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingRef) == "" {
		return support.Invalid("booking_ref is required")
	}
	if c.Guests < 1 {
		return support.Invalid("guests must be at least 1")
	}
	if c.ShownTotal != "" && c.Currency == "" {
		return support.Invalid("currency is required with shown_total")
	}
	return nil
}

type ConfirmBookingHandler struct {
	Holds policies.HoldPort
}

func (h *ConfirmBookingHandler) Handle(ctx context.Context, cmd ConfirmBookingCommand) (dto.Confirmation, error) {
	id, err := support.PropertyID(cmd.PropertyID)
	if err != nil {
		return dto.Confirmation{}, err
	}
	dr, err := support.StayRange(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return dto.Confirmation{}, err
	}
	req := svcholds.ConfirmRequest{
		PropertyID: id,
		Range:      dr,
		BookingRef: strings.TrimSpace(cmd.BookingRef),
		Guests:     cmd.Guests,
	}
	if cmd.ShownTotal != "" {
		shown, err := money.Parse(cmd.ShownTotal, strings.ToUpper(cmd.Currency))
		if err != nil {
			return dto.Confirmation{}, support.Invalid("%v", err)
		}
		req.ShownTotal = &shown
	}
	res, err := h.Holds.Confirm(ctx, req)
	if err != nil {
		return dto.Confirmation{}, err
	}
	return dto.MapConfirmation(req.BookingRef, res), nil
}

// SweepHoldsCommand is run by the scheduler. An empty PropertyID sweeps every property.
type SweepHoldsCommand struct {
	PropertyID string
	Now        time.Time
}

func (c SweepHoldsCommand) Key() string { return sweepHoldsKey }
func (c SweepHoldsCommand) Internal()   {}

type SweepHoldsHandler struct {
	Holds policies.HoldPort
}

func (h *SweepHoldsHandler) Handle(ctx context.Context, cmd SweepHoldsCommand) (dto.SweepReport, error) {
	report, err := h.Holds.Sweep(ctx, property.ID(strings.TrimSpace(cmd.PropertyID)), cmd.Now)
	if err != nil {
		return dto.SweepReport{}, err
	}
	return dto.MapSweepReport(report), nil
}

var (
	_ commands.Handler[PlaceHoldCommand, dto.Hold]              = (*PlaceHoldHandler)(nil)
	_ commands.Handler[ReleaseHoldCommand, ReleaseResult]       = (*ReleaseHoldHandler)(nil)
	_ commands.Handler[ConfirmBookingCommand, dto.Confirmation] = (*ConfirmBookingHandler)(nil)
	_ commands.Handler[SweepHoldsCommand, dto.SweepReport]      = (*SweepHoldsHandler)(nil)
)
