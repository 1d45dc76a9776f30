package quoting

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"rentalspot/internal/domain/pricing"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/domain/shared/money"
)

var (
	ErrRulesMissing = errors.New("quoting: rule store missing")
	ErrNoNights     = errors.New("quoting: quote needs at least one night")
)

// MinimumStayError reports a stay shorter than the strictest night of the range requires.
type MinimumStayError struct {
	Required  int
	Requested int
}

func (e *MinimumStayError) Error() string {
	return fmt.Sprintf("quoting: minimum stay is %d nights, requested %d", e.Required, e.Requested)
}

func IsMinimumStayError(err error) *MinimumStayError {
	var me *MinimumStayError
	if errors.As(err, &me) {
		return me
	}
	return nil
}

type GuestCountError struct {
	Requested int
	Max       int
}

func (e *GuestCountError) Error() string {
	return fmt.Sprintf("quoting: guest count %d outside 1..%d", e.Requested, e.Max)
}

func IsGuestCountError(err error) *GuestCountError {
	var ge *GuestCountError
	if errors.As(err, &ge) {
		return ge
	}
	return nil
}

// NightRate is the price of one night for the quoted guest count.
type NightRate struct {
	Date          time.Time
	NightlyPrice  money.Money
	ExtraGuestFee money.Money
	Price         money.Money
	Source        pricing.PriceSource
	RuleID        string
	MinimumStay   int
	IsWeekend     bool
}

type Discount struct {
	MinNights  int
	Percentage decimal.Decimal
	Amount     money.Money
}

type Quote struct {
	PropertyID          property.ID
	Range               daterange.DateRange
	Guests              int
	Nights              int
	Currency            string
	Rates               []NightRate
	Subtotal            money.Money
	ExtraGuestFees      money.Money
	Discount            *Discount
	CleaningFee         money.Money
	Total               money.Money
	MinimumStayRequired int
	QuotedAt            time.Time
}

// RecalculateTotal derives Subtotal, ExtraGuestFees, the discount amount and Total from
// Rates. Total = subtotal - discount + cleaning fee.
func (q *Quote) RecalculateTotal() error {
	if q.Currency == "" {
		return money.ErrInvalidCurrency
	}
	if len(q.Rates) == 0 {
		return ErrNoNights
	}
	subtotal := money.Zero(q.Currency)
	extra := money.Zero(q.Currency)
	var err error
	for _, r := range q.Rates {
		if subtotal, err = subtotal.Add(r.Price); err != nil {
			return err
		}
		if r.ExtraGuestFee.Currency != "" {
			if extra, err = extra.Add(r.ExtraGuestFee); err != nil {
				return err
			}
		}
	}
	q.Subtotal = subtotal
	q.ExtraGuestFees = extra

	total := subtotal
	if q.Discount != nil {
		q.Discount.Amount = subtotal.Percent(q.Discount.Percentage)
		if total, err = total.Sub(q.Discount.Amount); err != nil {
			return err
		}
	}
	cleaning := q.CleaningFee
	if cleaning.Currency == "" {
		cleaning = money.Zero(q.Currency)
	}
	q.CleaningFee = cleaning
	if total, err = total.Add(cleaning); err != nil {
		return err
	}
	q.Total = total.Round()
	return nil
}

// PriceSources lists the rule layer that priced each night, in night order.
func (q Quote) PriceSources() []pricing.PriceSource {
	out := make([]pricing.PriceSource, 0, len(q.Rates))
	for _, r := range q.Rates {
		out = append(out, r.Source)
	}
	return out
}
