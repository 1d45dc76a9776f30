package dto

import (
	"time"

	"rentalspot/internal/app/services/holds"
	"rentalspot/internal/domain/availability"
	"rentalspot/internal/domain/shared/daterange"
)

type Hold struct {
	HoldID     string    `json:"hold_id"`
	PropertyID string    `json:"property_id"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	BookingRef string    `json:"booking_ref"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func MapHold(h availability.PlacedHold) Hold {
	return Hold{
		HoldID:     string(h.ID),
		PropertyID: string(h.PropertyID),
		CheckIn:    daterange.FormatDate(h.Range.CheckIn),
		CheckOut:   daterange.FormatDate(h.Range.CheckOut),
		BookingRef: h.BookingRef,
		ExpiresAt:  h.ExpiresAt,
	}
}

type PriceDrift struct {
	Shown   string `json:"shown"`
	Current string `json:"current"`
	Delta   string `json:"delta"`
}

type Confirmation struct {
	BookingRef string      `json:"booking_ref"`
	Quote      Quote       `json:"quote"`
	PriceDrift *PriceDrift `json:"price_drift,omitempty"`
}

func MapConfirmation(bookingRef string, c holds.Confirmation) Confirmation {
	out := Confirmation{BookingRef: bookingRef, Quote: MapQuote(c.Quote)}
	if c.Drift != nil {
		out.PriceDrift = &PriceDrift{
			Shown:   Amount(c.Drift.Shown),
			Current: Amount(c.Drift.Current),
			Delta:   Amount(c.Drift.Delta),
		}
	}
	return out
}

type SweepFailure struct {
	Record string `json:"record"`
	Error  string `json:"error"`
}

type SweepReport struct {
	Scanned  int            `json:"scanned"`
	Released int            `json:"released"`
	Failures []SweepFailure `json:"failures,omitempty"`
}

func MapSweepReport(r availability.SweepReport) SweepReport {
	out := SweepReport{Scanned: r.Scanned, Released: r.Released}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, SweepFailure{Record: f.Key.String(), Error: f.Err.Error()})
	}
	return out
}
