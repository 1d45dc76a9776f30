package availability

import (
	"time"

	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

type HoldPlaced struct {
	PropertyID property.ID         `json:"property_id"`
	HoldID     HoldID              `json:"hold_id"`
	BookingRef string              `json:"booking_ref"`
	Range      daterange.DateRange `json:"range"`
	ExpiresAt  time.Time           `json:"expires_at"`
	At         time.Time           `json:"at"`
}

func (e HoldPlaced) EventName() string     { return "availability.hold_placed" }
func (e HoldPlaced) AggregateID() string   { return string(e.PropertyID) }
func (e HoldPlaced) OccurredAt() time.Time { return e.At }

type HoldReleased struct {
	PropertyID property.ID `json:"property_id"`
	HoldID     HoldID      `json:"hold_id"`
	Nights     int         `json:"nights"`
	At         time.Time   `json:"at"`
}

func (e HoldReleased) EventName() string     { return "availability.hold_released" }
func (e HoldReleased) AggregateID() string   { return string(e.PropertyID) }
func (e HoldReleased) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	PropertyID property.ID         `json:"property_id"`
	BookingRef string              `json:"booking_ref"`
	Range      daterange.DateRange `json:"range"`
	At         time.Time           `json:"at"`
}

func (e BookingConfirmed) EventName() string     { return "availability.booking_confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.PropertyID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type HoldsExpired struct {
	PropertyID property.ID `json:"property_id"`
	Month      string      `json:"month"`
	Days       []int       `json:"days"`
	At         time.Time   `json:"at"`
}

func (e HoldsExpired) EventName() string     { return "availability.holds_expired" }
func (e HoldsExpired) AggregateID() string   { return string(e.PropertyID) }
func (e HoldsExpired) OccurredAt() time.Time { return e.At }

type OverbookingPrevented struct {
	PropertyID property.ID         `json:"property_id"`
	BookingRef string              `json:"booking_ref"`
	Range      daterange.DateRange `json:"range"`
	Nights     []time.Time         `json:"nights"`
	At         time.Time           `json:"at"`
}

func (e OverbookingPrevented) EventName() string     { return "availability.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return string(e.PropertyID) }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
