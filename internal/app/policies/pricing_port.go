package policies

import (
	"context"

	"rentalspot/internal/app/services/calendars"
	"rentalspot/internal/app/services/quoting"
	"rentalspot/internal/domain/pricing"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

type QuotePort interface {
	GetQuote(ctx context.Context, req quoting.Request) (quoting.Quote, error)
}

type CalendarPort interface {
	Rebuild(ctx context.Context, id property.ID, from daterange.YearMonth, months int) (calendars.RebuildReport, error)
	RebuildAll(ctx context.Context, from daterange.YearMonth, months int) (calendars.BatchReport, error)
	Month(ctx context.Context, id property.ID, ym daterange.YearMonth) (pricing.MonthCalendar, error)
}

var (
	_ QuotePort    = (*quoting.Engine)(nil)
	_ CalendarPort = (*calendars.Rebuilder)(nil)
)
