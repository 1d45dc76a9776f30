package holds

import (
	"time"

	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/domain/shared/money"
)

type PriceDriftDetected struct {
	PropertyID property.ID         `json:"property_id"`
	BookingRef string              `json:"booking_ref"`
	Range      daterange.DateRange `json:"range"`
	Shown      money.Money         `json:"shown"`
	Current    money.Money         `json:"current"`
	At         time.Time           `json:"at"`
}

func (e PriceDriftDetected) EventName() string     { return "holds.price_drift_detected" }
func (e PriceDriftDetected) AggregateID() string   { return string(e.PropertyID) }
func (e PriceDriftDetected) OccurredAt() time.Time { return e.At }
