package property

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"rentalspot/internal/domain/shared/money"
)

// ID identifies a rental property.
type ID string

var ErrPropertyNotFound = errors.New("property: not found")

// RuleDataError reports missing or malformed rule data. It is never recovered locally.
type RuleDataError struct {
	PropertyID ID
	Field      string
	Reason     string
}

func (e *RuleDataError) Error() string {
	return fmt.Sprintf("property %s: invalid rule data %s: %s", e.PropertyID, e.Field, e.Reason)
}

// IsRuleDataError returns the RuleDataError in err's chain, or nil.
func IsRuleDataError(err error) *RuleDataError {
	var rde *RuleDataError
	if errors.As(err, &rde) {
		return rde
	}
	return nil
}

// WeekendPricing multiplies the base price on the configured weekdays.
type WeekendPricing struct {
	Enabled    bool
	Days       []time.Weekday
	Multiplier decimal.Decimal
}

func (w WeekendPricing) IsWeekendDay(d time.Weekday) bool {
	for _, wd := range w.Days {
		if wd == d {
			return true
		}
	}
	return false
}

// StayDiscountTier unlocks Percentage off the subtotal once a stay reaches MinNights.
type StayDiscountTier struct {
	MinNights  int
	Percentage decimal.Decimal
}

// Config is the per-property pricing configuration.
type Config struct {
	ID                    ID
	Currency              string
	BasePricePerNight     money.Money
	BaseOccupancy         int
	ExtraGuestFeePerNight money.Money
	MaxGuests             int
	CleaningFee           money.Money
	MinimumStay           int
	Weekend               WeekendPricing
	StayDiscounts         []StayDiscountTier
}

// DefaultWeekendDays are Friday and Saturday nights.
var DefaultWeekendDays = []time.Weekday{time.Friday, time.Saturday}

func (c Config) invalid(field, reason string) error {
	return &RuleDataError{PropertyID: c.ID, Field: field, Reason: reason}
}

// Validate rejects configs that cannot be priced. Nothing is defaulted to zero.
func (c Config) Validate() error {
	if len(c.Currency) != 3 {
		return c.invalid("currency", "must be a 3-letter code")
	}
	if c.BasePricePerNight.Currency == "" {
		return c.invalid("basePricePerNight", "missing")
	}
	if !c.BasePricePerNight.Amount.IsPositive() {
		return c.invalid("basePricePerNight", "must be positive")
	}
	amounts := []struct {
		field string
		m     money.Money
	}{
		{"basePricePerNight", c.BasePricePerNight},
		{"extraGuestFeePerNight", c.ExtraGuestFeePerNight},
		{"cleaningFee", c.CleaningFee},
	}
	for _, a := range amounts {
		if a.m.Currency != "" && a.m.Currency != c.Currency {
			return c.invalid(a.field, "currency "+a.m.Currency+" differs from "+c.Currency)
		}
		if a.m.IsNegative() {
			return c.invalid(a.field, "must not be negative")
		}
	}
	if c.BaseOccupancy < 1 {
		return c.invalid("baseOccupancy", "must be at least 1")
	}
	if c.MaxGuests < 1 {
		return c.invalid("maxGuests", "must be at least 1")
	}
	if c.MinimumStay < 1 {
		return c.invalid("minimumStay", "must be at least 1")
	}
	if c.Weekend.Enabled {
		if len(c.Weekend.Days) == 0 {
			return c.invalid("weekendPricing.weekendDays", "empty")
		}
		if !c.Weekend.Multiplier.GreaterThan(decimal.NewFromInt(1)) {
			return c.invalid("weekendPricing.multiplier", "must be greater than 1")
		}
	}
	seen := map[int]bool{}
	for _, tier := range c.StayDiscounts {
		if tier.MinNights < 1 {
			return c.invalid("lengthOfStayDiscounts.minNights", "must be at least 1")
		}
		if seen[tier.MinNights] {
			return c.invalid("lengthOfStayDiscounts.minNights", fmt.Sprintf("duplicate tier %d", tier.MinNights))
		}
		seen[tier.MinNights] = true
		if !tier.Percentage.IsPositive() || tier.Percentage.GreaterThan(decimal.NewFromInt(100)) {
			return c.invalid("lengthOfStayDiscounts.discountPercentage", "must be within (0, 100]")
		}
	}
	return nil
}

// ExtraGuestFee returns the fee owed per night due to the given guest count.
func (c Config) ExtraGuestFee(guests int) money.Money {
	extra := guests - c.BaseOccupancy
	if extra <= 0 || c.ExtraGuestFeePerNight.Currency == "" {
		return money.Zero(c.Currency)
	}
	return c.ExtraGuestFeePerNight.Times(extra)
}

// BestStayDiscount picks the tier with the largest MinNights not exceeding nights.
// Tiers never combine.
func (c Config) BestStayDiscount(nights int) (StayDiscountTier, bool) {
	var best StayDiscountTier
	found := false
	for _, tier := range c.StayDiscounts {
		if tier.MinNights > nights {
			continue
		}
		if !found || tier.MinNights > best.MinNights {
			best = tier
			found = true
		}
	}
	return best, found
}
