package dto

import (
	"strconv"
	"time"

	"rentalspot/internal/app/services/calendars"
	"rentalspot/internal/domain/availability"
	"rentalspot/internal/domain/pricing"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

type PriceCalendarDay struct {
	Date               string            `json:"date"`
	Available          bool              `json:"available"`
	BasePrice          string            `json:"base_price"`
	AdjustedPrice      string            `json:"adjusted_price"`
	MinimumStay        int               `json:"minimum_stay"`
	IsWeekend          bool              `json:"is_weekend"`
	Source             string            `json:"price_source"`
	RuleID             string            `json:"rule_id,omitempty"`
	FlatRate           bool              `json:"flat_rate,omitempty"`
	PricesByGuestCount map[string]string `json:"prices_by_guest_count,omitempty"`
}

type PriceCalendar struct {
	PropertyID string             `json:"property_id"`
	Month      string             `json:"month"`
	Currency   string             `json:"currency"`
	BuiltAt    time.Time          `json:"built_at"`
	Days       []PriceCalendarDay `json:"days"`
}

func MapPriceCalendar(cal pricing.MonthCalendar) PriceCalendar {
	out := PriceCalendar{
		PropertyID: string(cal.PropertyID),
		Month:      cal.Month.String(),
		Currency:   cal.Currency,
		BuiltAt:    cal.BuiltAt,
		Days:       make([]PriceCalendarDay, 0, len(cal.Days)),
	}
	for d := 1; d <= cal.Month.Days(); d++ {
		day, ok := cal.Days[d]
		if !ok {
			continue
		}
		row := PriceCalendarDay{
			Date:          daterange.FormatDate(day.Date),
			Available:     day.Available,
			BasePrice:     Amount(day.BasePrice),
			AdjustedPrice: Amount(day.AdjustedPrice),
			MinimumStay:   day.MinimumStay,
			IsWeekend:     day.IsWeekend,
			Source:        string(day.Source),
			RuleID:        day.RuleID,
			FlatRate:      day.FlatRate,
		}
		if len(day.PricesByGuestCount) > 0 {
			row.PricesByGuestCount = make(map[string]string, len(day.PricesByGuestCount))
			for guests, price := range day.PricesByGuestCount {
				row.PricesByGuestCount[strconv.Itoa(guests)] = Amount(price)
			}
		}
		out.Days = append(out.Days, row)
	}
	return out
}

type RebuildResult struct {
	PropertyID string   `json:"property_id"`
	Months     []string `json:"months"`
	Published  int      `json:"published"`
}

type RebuildAllResult struct {
	Properties []RebuildResult `json:"properties"`
	Failed     []string        `json:"failed,omitempty"`
}

func MapRebuildReport(r calendars.RebuildReport) RebuildResult {
	out := RebuildResult{PropertyID: string(r.PropertyID), Months: []string{}, Published: r.Published}
	for _, ym := range r.Months {
		out.Months = append(out.Months, ym.String())
	}
	return out
}

type AvailabilityDay struct {
	Date       string     `json:"date"`
	Status     string     `json:"status"`
	HoldExpiry *time.Time `json:"hold_expiry,omitempty"`
}

type AvailabilityMonth struct {
	PropertyID string            `json:"property_id"`
	Month      string            `json:"month"`
	Days       []AvailabilityDay `json:"days"`
}

const (
	DayOpen   = "open"
	DayHeld   = "held"
	DayClosed = "closed"
)

// MapAvailabilityMonth hides booking references; a held day only exposes its expiry.
func MapAvailabilityMonth(id property.ID, ym daterange.YearMonth, days []availability.DayStatus) AvailabilityMonth {
	out := AvailabilityMonth{PropertyID: string(id), Month: ym.String(), Days: make([]AvailabilityDay, 0, len(days))}
	for _, d := range days {
		row := AvailabilityDay{Date: daterange.FormatDate(d.Date), Status: DayOpen}
		switch {
		case !d.Open:
			row.Status = DayClosed
		case d.Held:
			row.Status = DayHeld
			exp := d.HoldExpiry
			row.HoldExpiry = &exp
		}
		out.Days = append(out.Days, row)
	}
	return out
}
