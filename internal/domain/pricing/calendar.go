package pricing

import (
	"context"
	"time"

	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/domain/shared/money"
)

type PriceSource string

const (
	SourceBase     PriceSource = "base"
	SourceSeason   PriceSource = "season"
	SourceOverride PriceSource = "override"
	SourceWeekend  PriceSource = "weekend"
)

// CalendarDay is the fully resolved price record of one calendar day. Its Available flag
// only reflects rule overrides; the availability ledger stays authoritative for bookings.
type CalendarDay struct {
	Date               time.Time
	BasePrice          money.Money
	AdjustedPrice      money.Money
	Available          bool
	MinimumStay        int
	IsWeekend          bool
	Source             PriceSource
	RuleID             string
	FlatRate           bool
	PricesByGuestCount map[int]money.Money
}

// PriceFor returns the nightly price for the guest count.
func (d CalendarDay) PriceFor(guests int) (money.Money, bool) {
	p, ok := d.PricesByGuestCount[guests]
	return p, ok
}

// MonthCalendar holds one CalendarDay per day of the month, keyed by day of month.
type MonthCalendar struct {
	PropertyID property.ID
	Month      daterange.YearMonth
	Currency   string
	Days       map[int]CalendarDay
	BuiltAt    time.Time
}

func (m MonthCalendar) Day(date time.Time) (CalendarDay, bool) {
	if daterange.MonthOf(date) != m.Month {
		return CalendarDay{}, false
	}
	d, ok := m.Days[date.Day()]
	return d, ok
}

// CalendarRepository caches built month calendars.
type CalendarRepository interface {
	Month(ctx context.Context, id property.ID, ym daterange.YearMonth) (MonthCalendar, bool, error)
	SaveMonth(ctx context.Context, cal MonthCalendar) error
}

// Builder resolves calendar days from a rule snapshot. It performs no I/O.
type Builder struct {
	Options Options
}

func NewBuilder(opts Options) Builder {
	return Builder{Options: opts.withDefaults()}
}

// BuildMonth resolves every day of ym. The snapshot must cover the month's overrides.
func (b Builder) BuildMonth(snap RuleSnapshot, ym daterange.YearMonth, now time.Time) MonthCalendar {
	cal := MonthCalendar{
		PropertyID: snap.Config.ID,
		Month:      ym,
		Currency:   snap.Config.Currency,
		Days:       make(map[int]CalendarDay, ym.Days()),
		BuiltAt:    now.UTC(),
	}
	for day := 1; day <= ym.Days(); day++ {
		cal.Days[day] = b.BuildDay(snap, ym.Date(day))
	}
	return cal
}

// BuildDay applies the precedence chain override > season > weekend > base.
func (b Builder) BuildDay(snap RuleSnapshot, date time.Time) CalendarDay {
	opts := b.Options.withDefaults()
	cfg := snap.Config
	date = daterange.Day(date)
	weekendDays := cfg.Weekend
	if len(weekendDays.Days) == 0 {
		weekendDays.Days = property.DefaultWeekendDays
	}
	day := CalendarDay{
		Date:          date,
		BasePrice:     cfg.BasePricePerNight,
		AdjustedPrice: cfg.BasePricePerNight,
		Available:     true,
		MinimumStay:   cfg.MinimumStay,
		IsWeekend:     weekendDays.IsWeekendDay(date.Weekday()),
		Source:        SourceBase,
	}

	minStayFixed := false
	if o, ok := snap.Override(daterange.FormatDate(date)); ok {
		switch ov := o.(type) {
		case BlockedOverride:
			day.Available = false
			day.Source = SourceOverride
			day.RuleID = ov.ID
			return day
		case PriceOverride:
			day.AdjustedPrice = ov.Price.Round()
			day.Source = SourceOverride
			day.RuleID = ov.ID
			day.FlatRate = ov.FlatRate
			if ov.MinimumStay > 0 {
				day.MinimumStay = ov.MinimumStay
			}
			day.PricesByGuestCount = guestPrices(cfg, day.AdjustedPrice, ov.FlatRate)
			return day
		case StayOverride:
			day.MinimumStay = ov.MinimumStay
			minStayFixed = true
		}
	}

	weekendApplies := cfg.Weekend.Enabled && cfg.Weekend.IsWeekendDay(date.Weekday())
	if season, ok := pickSeason(snap.Seasons, date, opts.SeasonTieBreak); ok {
		day.AdjustedPrice = cfg.BasePricePerNight.Mul(season.Multiplier)
		if weekendApplies && opts.WeekendStacking == StackingCompound {
			day.AdjustedPrice = day.AdjustedPrice.Mul(cfg.Weekend.Multiplier)
		}
		if !minStayFixed && season.MinimumStay > day.MinimumStay {
			day.MinimumStay = season.MinimumStay
		}
		day.Source = SourceSeason
		day.RuleID = season.ID
	} else if weekendApplies {
		day.AdjustedPrice = cfg.BasePricePerNight.Mul(cfg.Weekend.Multiplier)
		day.Source = SourceWeekend
	}
	day.PricesByGuestCount = guestPrices(cfg, day.AdjustedPrice, false)
	return day
}

func guestPrices(cfg property.Config, nightly money.Money, flat bool) map[int]money.Money {
	out := make(map[int]money.Money, cfg.MaxGuests)
	for guests := 1; guests <= cfg.MaxGuests; guests++ {
		if flat {
			out[guests] = nightly
			continue
		}
		price, err := nightly.Add(cfg.ExtraGuestFee(guests))
		if err != nil {
			// currencies are validated by NewSnapshot
			price = nightly
		}
		out[guests] = price
	}
	return out
}

func pickSeason(seasons []SeasonalRule, date time.Time, tb SeasonTieBreak) (SeasonalRule, bool) {
	var best SeasonalRule
	found := false
	for _, s := range seasons {
		if !s.Enabled || !s.Covers(date) {
			continue
		}
		if !found || seasonBeats(s, best, tb) {
			best = s
			found = true
		}
	}
	return best, found
}

// seasonBeats reports whether a ranks ahead of b.
func seasonBeats(a, b SeasonalRule, tb SeasonTieBreak) bool {
	byPriority := func() (bool, bool) { return a.Priority > b.Priority, a.Priority != b.Priority }
	bySpan := func() (bool, bool) { return a.SpanDays() < b.SpanDays(), a.SpanDays() != b.SpanDays() }
	byCreated := func() (bool, bool) { return a.CreatedAt.After(b.CreatedAt), !a.CreatedAt.Equal(b.CreatedAt) }

	var order []func() (bool, bool)
	switch tb {
	case TieBreakSpecific:
		order = []func() (bool, bool){bySpan, byPriority, byCreated}
	case TieBreakLatest:
		order = []func() (bool, bool){byCreated, byPriority, bySpan}
	default:
		order = []func() (bool, bool){byPriority, bySpan, byCreated}
	}
	for _, cmp := range order {
		if wins, decided := cmp(); decided {
			return wins
		}
	}
	return a.ID < b.ID
}
