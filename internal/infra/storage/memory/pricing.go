package memory

import (
	"context"
	"sync"

	domainpricing "rentalspot/internal/domain/pricing"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

type calendarKey struct {
	id    property.ID
	month daterange.YearMonth
}

// CalendarRepository caches built month calendars in memory.
type CalendarRepository struct {
	mu     sync.RWMutex
	months map[calendarKey]domainpricing.MonthCalendar
}

func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{months: make(map[calendarKey]domainpricing.MonthCalendar)}
}

func (r *CalendarRepository) Month(ctx context.Context, id property.ID, ym daterange.YearMonth) (domainpricing.MonthCalendar, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cal, ok := r.months[calendarKey{id: id, month: ym}]
	return cal, ok, nil
}

func (r *CalendarRepository) SaveMonth(ctx context.Context, cal domainpricing.MonthCalendar) error {
	days := make(map[int]domainpricing.CalendarDay, len(cal.Days))
	for d, day := range cal.Days {
		days[d] = day
	}
	cal.Days = days
	r.mu.Lock()
	defer r.mu.Unlock()
	r.months[calendarKey{id: cal.PropertyID, month: cal.Month}] = cal
	return nil
}

var _ domainpricing.CalendarRepository = (*CalendarRepository)(nil)
