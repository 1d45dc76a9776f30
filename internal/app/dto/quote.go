package dto

import (
	"time"

	"rentalspot/internal/app/services/quoting"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/domain/shared/money"
)

type NightRate struct {
	Date          string `json:"date"`
	NightlyPrice  string `json:"nightly_price"`
	ExtraGuestFee string `json:"extra_guest_fee"`
	Price         string `json:"price"`
	Source        string `json:"price_source"`
	RuleID        string `json:"rule_id,omitempty"`
	MinimumStay   int    `json:"minimum_stay"`
	IsWeekend     bool   `json:"is_weekend"`
}

type Discount struct {
	MinNights  int    `json:"min_nights"`
	Percentage string `json:"percentage"`
	Amount     string `json:"amount"`
}

type Quote struct {
	PropertyID          string      `json:"property_id"`
	CheckIn             string      `json:"check_in"`
	CheckOut            string      `json:"check_out"`
	Guests              int         `json:"guests"`
	Nights              int         `json:"nights"`
	Currency            string      `json:"currency"`
	Rates               []NightRate `json:"rates"`
	PriceSources        []string    `json:"price_sources"`
	Subtotal            string      `json:"subtotal"`
	ExtraGuestFees      string      `json:"extra_guest_fees"`
	Discount            *Discount   `json:"discount,omitempty"`
	CleaningFee         string      `json:"cleaning_fee"`
	Total               string      `json:"total"`
	MinimumStayRequired int         `json:"minimum_stay_required"`
	QuotedAt            time.Time   `json:"quoted_at"`
}

// Amount formats m with two decimals and no currency.
func Amount(m money.Money) string {
	return m.Amount.StringFixed(money.Places)
}

func MapQuote(q quoting.Quote) Quote {
	out := Quote{
		PropertyID:          string(q.PropertyID),
		CheckIn:             daterange.FormatDate(q.Range.CheckIn),
		CheckOut:            daterange.FormatDate(q.Range.CheckOut),
		Guests:              q.Guests,
		Nights:              q.Nights,
		Currency:            q.Currency,
		Rates:               make([]NightRate, 0, len(q.Rates)),
		PriceSources:        make([]string, 0, len(q.Rates)),
		Subtotal:            Amount(q.Subtotal),
		ExtraGuestFees:      Amount(q.ExtraGuestFees),
		CleaningFee:         Amount(q.CleaningFee),
		Total:               Amount(q.Total),
		MinimumStayRequired: q.MinimumStayRequired,
		QuotedAt:            q.QuotedAt,
	}
	for _, r := range q.Rates {
		out.Rates = append(out.Rates, NightRate{
			Date:          daterange.FormatDate(r.Date),
			NightlyPrice:  Amount(r.NightlyPrice),
			ExtraGuestFee: Amount(r.ExtraGuestFee),
			Price:         Amount(r.Price),
			Source:        string(r.Source),
			RuleID:        r.RuleID,
			MinimumStay:   r.MinimumStay,
			IsWeekend:     r.IsWeekend,
		})
	}
	for _, src := range q.PriceSources() {
		out.PriceSources = append(out.PriceSources, string(src))
	}
	if q.Discount != nil {
		out.Discount = &Discount{
			MinNights:  q.Discount.MinNights,
			Percentage: q.Discount.Percentage.String(),
			Amount:     Amount(q.Discount.Amount),
		}
	}
	return out
}
