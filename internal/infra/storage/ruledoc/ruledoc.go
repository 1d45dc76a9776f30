// Package ruledoc holds the stored shape of pricing rules, shared by the Mongo rule store
// and the JSON property fixtures, and its conversion into domain rules.
package ruledoc

import (
	"strings"
	"time"

	domainpricing "rentalspot/internal/domain/pricing"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/money"
)

type PropertyDocument struct {
	ID                    string             `bson:"_id" json:"id"`
	Currency              string             `bson:"currency" json:"currency"`
	BasePricePerNight     Amount             `bson:"basePricePerNight" json:"basePricePerNight"`
	BaseOccupancy         int                `bson:"baseOccupancy" json:"baseOccupancy"`
	ExtraGuestFeePerNight Amount             `bson:"extraGuestFeePerNight,omitempty" json:"extraGuestFeePerNight,omitempty"`
	MaxGuests             int                `bson:"maxGuests" json:"maxGuests"`
	CleaningFee           Amount             `bson:"cleaningFee,omitempty" json:"cleaningFee,omitempty"`
	MinimumStay           int                `bson:"minimumStay,omitempty" json:"minimumStay,omitempty"`
	WeekendPricing        *WeekendDocument   `bson:"weekendPricing,omitempty" json:"weekendPricing,omitempty"`
	LengthOfStayDiscounts []DiscountDocument `bson:"lengthOfStayDiscounts,omitempty" json:"lengthOfStayDiscounts,omitempty"`
}

type WeekendDocument struct {
	Enabled     bool     `bson:"enabled" json:"enabled"`
	WeekendDays []string `bson:"weekendDays,omitempty" json:"weekendDays,omitempty"`
	Multiplier  Amount   `bson:"multiplier" json:"multiplier"`
}

type DiscountDocument struct {
	MinNights          int    `bson:"minNights" json:"minNights"`
	DiscountPercentage Amount `bson:"discountPercentage" json:"discountPercentage"`
}

type SeasonDocument struct {
	ID          string    `bson:"_id" json:"id"`
	PropertyID  string    `bson:"propertyId" json:"propertyId"`
	Name        string    `bson:"name,omitempty" json:"name,omitempty"`
	StartDate   Day       `bson:"startDate" json:"startDate"`
	EndDate     Day       `bson:"endDate" json:"endDate"`
	Multiplier  Amount    `bson:"priceMultiplier" json:"priceMultiplier"`
	MinimumStay int       `bson:"minimumStay,omitempty" json:"minimumStay,omitempty"`
	Enabled     *bool     `bson:"enabled,omitempty" json:"enabled,omitempty"`
	Priority    int       `bson:"priority,omitempty" json:"priority,omitempty"`
	CreatedAt   time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

type OverrideDocument struct {
	ID          string `bson:"_id" json:"id"`
	PropertyID  string `bson:"propertyId" json:"propertyId"`
	Date        Day    `bson:"date" json:"date"`
	CustomPrice Amount `bson:"customPrice,omitempty" json:"customPrice,omitempty"`
	Currency    string `bson:"currency,omitempty" json:"currency,omitempty"`
	Available   *bool  `bson:"available,omitempty" json:"available,omitempty"`
	MinimumStay *int   `bson:"minimumStay,omitempty" json:"minimumStay,omitempty"`
	FlatRate    *bool  `bson:"flatRate,omitempty" json:"flatRate,omitempty"`
}

// Fixture bundles one property with its rules, the shape of the fixtures file.
type Fixture struct {
	Property        PropertyDocument   `json:"property"`
	SeasonalPricing []SeasonDocument   `json:"seasonalPricing"`
	DateOverrides   []OverrideDocument `json:"dateOverrides"`
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// Config converts the document. Amounts take the property currency; a missing minimum
// stay means one night and missing weekend days mean Friday and Saturday.
func (d PropertyDocument) Config() (property.Config, error) {
	id := property.ID(d.ID)
	invalid := func(field, reason string) error {
		return &property.RuleDataError{PropertyID: id, Field: field, Reason: reason}
	}
	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	cfg := property.Config{
		ID:            id,
		Currency:      currency,
		BaseOccupancy: d.BaseOccupancy,
		MaxGuests:     d.MaxGuests,
		MinimumStay:   d.MinimumStay,
	}
	if !d.BasePricePerNight.Valid {
		return property.Config{}, invalid("basePricePerNight", "missing")
	}
	cfg.BasePricePerNight = money.Money{Amount: d.BasePricePerNight.Value, Currency: currency}
	cfg.ExtraGuestFeePerNight = amountOrZero(d.ExtraGuestFeePerNight, currency)
	cfg.CleaningFee = amountOrZero(d.CleaningFee, currency)
	if cfg.MinimumStay == 0 {
		cfg.MinimumStay = 1
	}
	if w := d.WeekendPricing; w != nil {
		cfg.Weekend.Enabled = w.Enabled
		cfg.Weekend.Multiplier = w.Multiplier.Value
		for _, name := range w.WeekendDays {
			wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return property.Config{}, invalid("weekendPricing.weekendDays", "unknown weekday "+name)
			}
			cfg.Weekend.Days = append(cfg.Weekend.Days, wd)
		}
		if len(cfg.Weekend.Days) == 0 {
			cfg.Weekend.Days = append([]time.Weekday(nil), property.DefaultWeekendDays...)
		}
	}
	for _, t := range d.LengthOfStayDiscounts {
		cfg.StayDiscounts = append(cfg.StayDiscounts, property.StayDiscountTier{
			MinNights:  t.MinNights,
			Percentage: t.DiscountPercentage.Value,
		})
	}
	return cfg, nil
}

func amountOrZero(a Amount, currency string) money.Money {
	if !a.Valid {
		return money.Zero(currency)
	}
	return money.Money{Amount: a.Value, Currency: currency}
}

// Rule converts the document. Seasons are enabled unless stated otherwise.
func (d SeasonDocument) Rule() domainpricing.SeasonalRule {
	enabled := true
	if d.Enabled != nil {
		enabled = *d.Enabled
	}
	minStay := d.MinimumStay
	if minStay == 0 {
		minStay = 1
	}
	return domainpricing.SeasonalRule{
		ID:          d.ID,
		PropertyID:  property.ID(d.PropertyID),
		Name:        d.Name,
		Start:       d.StartDate.Time,
		End:         d.EndDate.Time,
		Multiplier:  d.Multiplier.Value,
		MinimumStay: minStay,
		Enabled:     enabled,
		Priority:    d.Priority,
		CreatedAt:   d.CreatedAt,
	}
}

// Raw converts the document into the loose override shape. A price without its own
// currency takes the property currency; a missing available flag means available.
func (d OverrideDocument) Raw(propertyCurrency string) domainpricing.RawOverride {
	raw := domainpricing.RawOverride{
		ID:          d.ID,
		PropertyID:  property.ID(d.PropertyID),
		Date:        d.Date.Time,
		Available:   d.Available == nil || *d.Available,
		MinimumStay: d.MinimumStay,
		FlatRate:    d.FlatRate,
	}
	if d.CustomPrice.Valid {
		currency := strings.ToUpper(strings.TrimSpace(d.Currency))
		if currency == "" {
			currency = propertyCurrency
		}
		raw.CustomPrice = &money.Money{Amount: d.CustomPrice.Value, Currency: currency}
	}
	return raw
}

// Override decodes the document into its variant; nil means the override has no effect.
func (d OverrideDocument) Override(propertyCurrency string, flatRateDefault bool) (domainpricing.DateOverride, error) {
	return domainpricing.DecodeOverride(d.Raw(propertyCurrency), flatRateDefault)
}

// NeedsCurrency reports whether Raw falls back to the property currency.
func (d OverrideDocument) NeedsCurrency() bool {
	return d.CustomPrice.Valid && strings.TrimSpace(d.Currency) == ""
}

// Rules converts a fixture into a config, its seasons and its decoded overrides.
func (f Fixture) Rules(flatRateDefault bool) (property.Config, []domainpricing.SeasonalRule, []domainpricing.DateOverride, error) {
	cfg, err := f.Property.Config()
	if err != nil {
		return property.Config{}, nil, nil, err
	}
	seasons := make([]domainpricing.SeasonalRule, 0, len(f.SeasonalPricing))
	for _, s := range f.SeasonalPricing {
		if s.PropertyID == "" {
			s.PropertyID = string(cfg.ID)
		}
		seasons = append(seasons, s.Rule())
	}
	var overrides []domainpricing.DateOverride
	for _, o := range f.DateOverrides {
		if o.PropertyID == "" {
			o.PropertyID = string(cfg.ID)
		}
		ov, err := o.Override(cfg.Currency, flatRateDefault)
		if err != nil {
			return property.Config{}, nil, nil, err
		}
		if ov != nil {
			overrides = append(overrides, ov)
		}
	}
	return cfg, seasons, overrides, nil
}
