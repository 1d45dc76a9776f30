package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/domain/shared/money"
)

// SeasonalRule multiplies the base price for every day in [Start, End] (inclusive).
type SeasonalRule struct {
	ID          string
	PropertyID  property.ID
	Name        string
	Start       time.Time
	End         time.Time
	Multiplier  decimal.Decimal
	MinimumStay int
	Enabled     bool
	Priority    int
	CreatedAt   time.Time
}

func (r SeasonalRule) Covers(date time.Time) bool {
	date = daterange.Day(date)
	return !date.Before(daterange.Day(r.Start)) && !date.After(daterange.Day(r.End))
}

// SpanDays counts the days covered, used to rank the more specific of two seasons.
func (r SeasonalRule) SpanDays() int {
	return int(daterange.Day(r.End).Sub(daterange.Day(r.Start))/(24*time.Hour)) + 1
}

func (r SeasonalRule) Validate() error {
	invalid := func(field, reason string) error {
		return &property.RuleDataError{PropertyID: r.PropertyID, Field: "seasonalPricing[" + r.ID + "]." + field, Reason: reason}
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return invalid("dates", "missing")
	}
	if daterange.Day(r.End).Before(daterange.Day(r.Start)) {
		return invalid("endDate", "before startDate")
	}
	if !r.Multiplier.IsPositive() {
		return invalid("priceMultiplier", "must be positive")
	}
	if r.MinimumStay < 1 {
		return invalid("minimumStay", "must be at least 1")
	}
	return nil
}

// OverrideMeta is shared by every DateOverride variant.
type OverrideMeta struct {
	ID         string
	PropertyID property.ID
	Date       time.Time
}

func (m OverrideMeta) Meta() OverrideMeta { return m }

// DateOverride is one of BlockedOverride, PriceOverride or StayOverride.
type DateOverride interface {
	Meta() OverrideMeta
	isDateOverride()
}

// BlockedOverride makes the day unbookable whatever the ledger says.
type BlockedOverride struct {
	OverrideMeta
}

// PriceOverride fixes the day's price. FlatRate makes the price guest-count invariant;
// otherwise extra-guest fees are added on top.
type PriceOverride struct {
	OverrideMeta
	Price       money.Money
	FlatRate    bool
	MinimumStay int
}

// StayOverride only changes the minimum stay; pricing falls through to seasons and weekends.
type StayOverride struct {
	OverrideMeta
	MinimumStay int
}

func (BlockedOverride) isDateOverride() {}
func (PriceOverride) isDateOverride()   {}
func (StayOverride) isDateOverride()    {}

// RawOverride is the loosely typed shape overrides are stored in.
type RawOverride struct {
	ID          string
	PropertyID  property.ID
	Date        time.Time
	CustomPrice *money.Money
	Available   bool
	MinimumStay *int
	FlatRate    *bool
}

// DecodeOverride resolves a stored override into its variant. An available override with
// neither price nor minimum stay has no effect and decodes to nil.
func DecodeOverride(raw RawOverride, flatRateDefault bool) (DateOverride, error) {
	meta := OverrideMeta{ID: raw.ID, PropertyID: raw.PropertyID, Date: daterange.Day(raw.Date)}
	invalid := func(field, reason string) error {
		return &property.RuleDataError{PropertyID: raw.PropertyID, Field: "dateOverrides[" + raw.ID + "]." + field, Reason: reason}
	}
	if meta.Date.IsZero() {
		return nil, invalid("date", "missing")
	}
	minStay := 0
	if raw.MinimumStay != nil {
		if *raw.MinimumStay < 1 {
			return nil, invalid("minimumStay", "must be at least 1")
		}
		minStay = *raw.MinimumStay
	}
	if !raw.Available {
		return BlockedOverride{OverrideMeta: meta}, nil
	}
	if raw.CustomPrice != nil {
		if raw.CustomPrice.IsNegative() || raw.CustomPrice.Currency == "" {
			return nil, invalid("customPrice", "must be a non-negative amount with currency")
		}
		flat := flatRateDefault
		if raw.FlatRate != nil {
			flat = *raw.FlatRate
		}
		return PriceOverride{OverrideMeta: meta, Price: *raw.CustomPrice, FlatRate: flat, MinimumStay: minStay}, nil
	}
	if minStay > 0 {
		return StayOverride{OverrideMeta: meta, MinimumStay: minStay}, nil
	}
	return nil, nil
}
