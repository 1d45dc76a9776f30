package holds

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentalspot/internal/app/services/quoting"
	"rentalspot/internal/domain/availability"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/domain/shared/events"
	"rentalspot/internal/domain/shared/money"
)

const DefaultTTL = 15 * time.Minute

var ErrLedgerMissing = errors.New("holds: ledger missing")

// Manager orchestrates holds over the ledger. Placing a hold needs no quote; confirming
// one always re-prices against the live rules.
type Manager struct {
	Ledger *availability.Ledger
	Quotes *quoting.Engine
	TTL    time.Duration
	Events events.Sink
	Logger *slog.Logger
	Clock  func() time.Time
}

type PlaceRequest struct {
	PropertyID property.ID
	Range      daterange.DateRange
	BookingRef string
	Contact    string
	TTL        time.Duration
}

type ConfirmRequest struct {
	PropertyID property.ID
	Range      daterange.DateRange
	BookingRef string
	Guests     int
	// ShownTotal is the price the guest saw; nil skips drift detection.
	ShownTotal *money.Money
}

// PriceDrift reports a confirmation priced differently from what the guest was shown.
type PriceDrift struct {
	Shown   money.Money
	Current money.Money
	Delta   money.Money
}

type Confirmation struct {
	Quote quoting.Quote
	Drift *PriceDrift
}

func (m *Manager) now() time.Time {
	if m.Clock != nil {
		return m.Clock().UTC()
	}
	return time.Now().UTC()
}

func (m *Manager) ttl(req time.Duration) time.Duration {
	switch {
	case req > 0:
		return req
	case m.TTL > 0:
		return m.TTL
	default:
		return DefaultTTL
	}
}

// PlaceHold refuses nights closed by a date override before touching the ledger.
func (m *Manager) PlaceHold(ctx context.Context, req PlaceRequest) (availability.PlacedHold, error) {
	if m.Ledger == nil {
		return availability.PlacedHold{}, ErrLedgerMissing
	}
	if err := req.Range.Validate(); err != nil {
		return availability.PlacedHold{}, err
	}
	if m.Quotes != nil {
		blocked, err := m.Quotes.BlockedByRules(ctx, req.PropertyID, req.Range)
		if err != nil {
			return availability.PlacedHold{}, err
		}
		if len(blocked) > 0 {
			return availability.PlacedHold{}, &availability.UnavailableError{Dates: availability.SortDates(blocked)}
		}
	}
	return m.Ledger.PlaceHold(ctx, availability.HoldRequest{
		PropertyID: req.PropertyID,
		Range:      req.Range,
		BookingRef: req.BookingRef,
		Contact:    req.Contact,
		TTL:        m.ttl(req.TTL),
	})
}

func (m *Manager) Release(ctx context.Context, id property.ID, holdID availability.HoldID) error {
	if m.Ledger == nil {
		return ErrLedgerMissing
	}
	return m.Ledger.ReleaseHold(ctx, id, holdID)
}

// Confirm re-quotes the stay live, excluding the caller's own hold, and closes the
// nights. A total different from ShownTotal is returned as Drift and published; the
// booking is confirmed at the current price.
func (m *Manager) Confirm(ctx context.Context, req ConfirmRequest) (Confirmation, error) {
	if m.Ledger == nil {
		return Confirmation{}, ErrLedgerMissing
	}
	if req.BookingRef == "" {
		return Confirmation{}, availability.ErrBookingRef
	}
	if m.Quotes == nil {
		return Confirmation{}, quoting.ErrRulesMissing
	}
	quote, err := m.Quotes.GetQuote(ctx, quoting.Request{
		PropertyID: req.PropertyID,
		Range:      req.Range,
		Guests:     req.Guests,
		BookingRef: req.BookingRef,
		Live:       true,
	})
	if err != nil {
		return Confirmation{}, err
	}
	if err := m.Ledger.ConfirmBooking(ctx, req.PropertyID, req.Range, req.BookingRef); err != nil {
		return Confirmation{}, err
	}
	out := Confirmation{Quote: quote}
	if req.ShownTotal != nil && !req.ShownTotal.Equal(quote.Total) {
		drift := &PriceDrift{Shown: *req.ShownTotal, Current: quote.Total}
		if delta, err := quote.Total.Sub(*req.ShownTotal); err == nil {
			drift.Delta = delta
		}
		out.Drift = drift
		if m.Events != nil {
			m.Events.Publish(ctx, PriceDriftDetected{
				PropertyID: req.PropertyID,
				BookingRef: req.BookingRef,
				Range:      req.Range,
				Shown:      drift.Shown,
				Current:    drift.Current,
				At:         m.now(),
			})
		}
	}
	return out, nil
}

// Sweep releases expired holds of one property, or of all properties when id is empty.
func (m *Manager) Sweep(ctx context.Context, id property.ID, now time.Time) (availability.SweepReport, error) {
	if m.Ledger == nil {
		return availability.SweepReport{}, ErrLedgerMissing
	}
	if now.IsZero() {
		now = m.now()
	}
	report, err := m.Ledger.SweepExpiredHolds(ctx, id, now)
	if m.Logger != nil {
		m.Logger.Info("hold sweep finished",
			"property_id", id,
			"scanned", report.Scanned,
			"released", report.Released,
			"failures", len(report.Failures),
		)
	}
	return report, err
}
