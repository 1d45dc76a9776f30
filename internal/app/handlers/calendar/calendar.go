package calendar

import (
	"context"
	"strings"

	"rentalspot/internal/app/commands"
	"rentalspot/internal/app/dto"
	"rentalspot/internal/app/handlers/support"
	"rentalspot/internal/app/policies"
	"rentalspot/internal/app/queries"
	"rentalspot/internal/domain/shared/daterange"
)

const (
	rebuildCalendarKey     = "calendar.rebuild"
	rebuildAllCalendarsKey = "calendar.rebuild_all"
	getPriceCalendarKey    = "calendar.month"
)

// RebuildCalendarCommand rebuilds cached months. Empty From means the current month;
// Months <= 0 means the configured horizon.
type RebuildCalendarCommand struct {
	PropertyID string
	From       string
	Months     int
}

func (c RebuildCalendarCommand) Key() string { return rebuildCalendarKey }
func (c RebuildCalendarCommand) Internal()   {}

type RebuildCalendarHandler struct {
	Calendars policies.CalendarPort
}

func (h *RebuildCalendarHandler) Handle(ctx context.Context, cmd RebuildCalendarCommand) (dto.RebuildResult, error) {
	id, err := support.PropertyID(cmd.PropertyID)
	if err != nil {
		return dto.RebuildResult{}, err
	}
	var from daterange.YearMonth
	if strings.TrimSpace(cmd.From) != "" {
		if from, err = support.Month(cmd.From); err != nil {
			return dto.RebuildResult{}, err
		}
	}
	report, err := h.Calendars.Rebuild(ctx, id, from, cmd.Months)
	if err != nil {
		return dto.RebuildResult{}, err
	}
	return dto.MapRebuildReport(report), nil
}

// RebuildAllCalendarsCommand rebuilds every known property with the same window.
type RebuildAllCalendarsCommand struct {
	From   string
	Months int
}

func (c RebuildAllCalendarsCommand) Key() string { return rebuildAllCalendarsKey }
func (c RebuildAllCalendarsCommand) Internal()   {}

type RebuildAllCalendarsHandler struct {
	Calendars policies.CalendarPort
}

func (h *RebuildAllCalendarsHandler) Handle(ctx context.Context, cmd RebuildAllCalendarsCommand) (dto.RebuildAllResult, error) {
	var from daterange.YearMonth
	if strings.TrimSpace(cmd.From) != "" {
		var err error
		if from, err = support.Month(cmd.From); err != nil {
			return dto.RebuildAllResult{}, err
		}
	}
	batch, err := h.Calendars.RebuildAll(ctx, from, cmd.Months)
	if err != nil {
		return dto.RebuildAllResult{}, err
	}
	out := dto.RebuildAllResult{Properties: []dto.RebuildResult{}}
	for _, r := range batch.Reports {
		out.Properties = append(out.Properties, dto.MapRebuildReport(r))
	}
	for _, id := range batch.Failed {
		out.Failed = append(out.Failed, string(id))
	}
	return out, nil
}

type GetPriceCalendarQuery struct {
	PropertyID string
	Month      string
}

func (q GetPriceCalendarQuery) Key() string { return getPriceCalendarKey }

type GetPriceCalendarHandler struct {
	Calendars policies.CalendarPort
}

func (h *GetPriceCalendarHandler) Handle(ctx context.Context, q GetPriceCalendarQuery) (dto.PriceCalendar, error) {
	id, err := support.PropertyID(q.PropertyID)
	if err != nil {
		return dto.PriceCalendar{}, err
	}
	ym, err := support.Month(q.Month)
	if err != nil {
		return dto.PriceCalendar{}, err
	}
	cal, err := h.Calendars.Month(ctx, id, ym)
	if err != nil {
		return dto.PriceCalendar{}, err
	}
	return dto.MapPriceCalendar(cal), nil
}

var (
	_ commands.Handler[RebuildCalendarCommand, dto.RebuildResult]        = (*RebuildCalendarHandler)(nil)
	_ commands.Handler[RebuildAllCalendarsCommand, dto.RebuildAllResult] = (*RebuildAllCalendarsHandler)(nil)
	_ queries.Handler[GetPriceCalendarQuery, dto.PriceCalendar]          = (*GetPriceCalendarHandler)(nil)
)
