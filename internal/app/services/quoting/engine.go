package quoting

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"rentalspot/internal/domain/availability"
	"rentalspot/internal/domain/pricing"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

// AvailabilityChecker is the ledger read used by the engine.
type AvailabilityChecker interface {
	IsRangeBookable(ctx context.Context, id property.ID, dr daterange.DateRange, bookingRef string) (availability.Bookability, error)
}

type Request struct {
	PropertyID property.ID
	Range      daterange.DateRange
	Guests     int
	// BookingRef excludes the caller's own hold from the availability check.
	BookingRef string
	// Live ignores cached calendars and prices from the current rules.
	Live bool
}

// Engine prices stays. It retries nothing and logs nothing; every failure is returned typed.
type Engine struct {
	Rules        pricing.RuleStore
	Calendars    pricing.CalendarRepository
	Availability AvailabilityChecker
	Builder      pricing.Builder
	Clock        func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

func (e *Engine) GetQuote(ctx context.Context, req Request) (Quote, error) {
	if e.Rules == nil {
		return Quote{}, ErrRulesMissing
	}
	if err := req.Range.Validate(); err != nil {
		return Quote{}, err
	}
	if req.Guests < 1 {
		return Quote{}, &GuestCountError{Requested: req.Guests}
	}

	var (
		bookable availability.Bookability
		cfg      property.Config
		days     []pricing.CalendarDay
	)
	g, gctx := errgroup.WithContext(ctx)
	if e.Availability != nil {
		g.Go(func() error {
			var err error
			bookable, err = e.Availability.IsRangeBookable(gctx, req.PropertyID, req.Range, req.BookingRef)
			return err
		})
	} else {
		bookable.Bookable = true
	}
	g.Go(func() error {
		var err error
		cfg, days, err = e.Nights(gctx, req.PropertyID, req.Range, req.Live)
		return err
	})
	if err := g.Wait(); err != nil {
		return Quote{}, err
	}

	if req.Guests > cfg.MaxGuests {
		return Quote{}, &GuestCountError{Requested: req.Guests, Max: cfg.MaxGuests}
	}
	blocked := append([]time.Time(nil), bookable.BlockedDates...)
	for _, d := range days {
		if !d.Available {
			blocked = append(blocked, d.Date)
		}
	}
	if len(blocked) > 0 {
		return Quote{}, &availability.UnavailableError{Dates: availability.SortDates(blocked)}
	}

	required := cfg.MinimumStay
	for _, d := range days {
		if d.MinimumStay > required {
			required = d.MinimumStay
		}
	}
	nights := req.Range.Nights()
	if nights < required {
		return Quote{}, &MinimumStayError{Required: required, Requested: nights}
	}

	q := Quote{
		PropertyID:          req.PropertyID,
		Range:               req.Range,
		Guests:              req.Guests,
		Nights:              nights,
		Currency:            cfg.Currency,
		Rates:               make([]NightRate, 0, nights),
		CleaningFee:         cfg.CleaningFee,
		MinimumStayRequired: required,
		QuotedAt:            e.now(),
	}
	for _, d := range days {
		price, ok := d.PriceFor(req.Guests)
		if !ok {
			return Quote{}, &GuestCountError{Requested: req.Guests, Max: len(d.PricesByGuestCount)}
		}
		extra, err := price.Sub(d.AdjustedPrice)
		if err != nil {
			return Quote{}, err
		}
		q.Rates = append(q.Rates, NightRate{
			Date:          d.Date,
			NightlyPrice:  d.AdjustedPrice,
			ExtraGuestFee: extra,
			Price:         price,
			Source:        d.Source,
			RuleID:        d.RuleID,
			MinimumStay:   d.MinimumStay,
			IsWeekend:     d.IsWeekend,
		})
	}
	if tier, ok := cfg.BestStayDiscount(nights); ok {
		q.Discount = &Discount{MinNights: tier.MinNights, Percentage: tier.Percentage}
	}
	if err := q.RecalculateTotal(); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// Nights resolves the calendar day of every night in dr. Cached months are used unless
// live is set or a month is missing, in which case the range is built from the rules.
func (e *Engine) Nights(ctx context.Context, id property.ID, dr daterange.DateRange, live bool) (property.Config, []pricing.CalendarDay, error) {
	if !live && e.Calendars != nil {
		cfg, err := e.Rules.PropertyConfig(ctx, id)
		if err != nil {
			return property.Config{}, nil, err
		}
		if err := cfg.Validate(); err != nil {
			return property.Config{}, nil, err
		}
		if days, ok, err := e.cachedNights(ctx, id, cfg.Currency, dr); err != nil {
			return property.Config{}, nil, err
		} else if ok {
			return cfg, days, nil
		}
	}
	snap, err := pricing.LoadSnapshot(ctx, e.Rules, id, dr)
	if err != nil {
		return property.Config{}, nil, err
	}
	nights := dr.EachNight()
	days := make([]pricing.CalendarDay, 0, len(nights))
	for _, night := range nights {
		days = append(days, e.Builder.BuildDay(snap, night))
	}
	return snap.Config, days, nil
}

func (e *Engine) cachedNights(ctx context.Context, id property.ID, currency string, dr daterange.DateRange) ([]pricing.CalendarDay, bool, error) {
	months := make(map[daterange.YearMonth]pricing.MonthCalendar)
	for _, ym := range dr.Months() {
		cal, ok, err := e.Calendars.Month(ctx, id, ym)
		if err != nil {
			return nil, false, err
		}
		if !ok || cal.Currency != currency {
			return nil, false, nil
		}
		months[ym] = cal
	}
	nights := dr.EachNight()
	days := make([]pricing.CalendarDay, 0, len(nights))
	for _, night := range nights {
		day, ok := months[daterange.MonthOf(night)].Day(night)
		if !ok {
			return nil, false, nil
		}
		days = append(days, day)
	}
	return days, true, nil
}

// BlockedByRules lists nights of dr closed by a date override, using the live rules.
func (e *Engine) BlockedByRules(ctx context.Context, id property.ID, dr daterange.DateRange) ([]time.Time, error) {
	if e.Rules == nil {
		return nil, ErrRulesMissing
	}
	_, days, err := e.Nights(ctx, id, dr, true)
	if err != nil {
		return nil, err
	}
	var blocked []time.Time
	for _, d := range days {
		if !d.Available {
			blocked = append(blocked, d.Date)
		}
	}
	return blocked, nil
}
