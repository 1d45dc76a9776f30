package calendars

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rentalspot/internal/domain/pricing"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

const DefaultMonthsAhead = 12

var (
	ErrRulesMissing   = errors.New("calendars: rule store missing")
	ErrMonthsRange    = errors.New("calendars: months must be between 1 and 36")
	ErrCatalogMissing = errors.New("calendars: property catalog missing")
)

// PropertyCatalog lists the properties whose calendars are maintained.
type PropertyCatalog interface {
	PropertyIDs(ctx context.Context) ([]property.ID, error)
}

// SnapshotPublisher exports a built month outside the service.
type SnapshotPublisher interface {
	PublishMonth(ctx context.Context, cal pricing.MonthCalendar) error
}

// Rebuilder materialises month price calendars from the rules into the cache.
type Rebuilder struct {
	Rules       pricing.RuleStore
	Properties  PropertyCatalog
	Calendars   pricing.CalendarRepository
	Builder     pricing.Builder
	Publisher   SnapshotPublisher
	MonthsAhead int
	Logger      *slog.Logger
	Clock       func() time.Time
}

type RebuildReport struct {
	PropertyID property.ID
	Months     []daterange.YearMonth
	Published  int
}

// BatchReport is the outcome of rebuilding every property.
type BatchReport struct {
	Reports []RebuildReport
	Failed  []property.ID
}

func (r *Rebuilder) now() time.Time {
	if r.Clock != nil {
		return r.Clock().UTC()
	}
	return time.Now().UTC()
}

// Rebuild builds months consecutive months starting at from. A zero from starts at the
// current month; months <= 0 uses MonthsAhead. Snapshot publication failures are logged
// and do not fail the rebuild.
func (r *Rebuilder) Rebuild(ctx context.Context, id property.ID, from daterange.YearMonth, months int) (RebuildReport, error) {
	if r.Rules == nil {
		return RebuildReport{}, ErrRulesMissing
	}
	now := r.now()
	if from.IsZero() {
		from = daterange.MonthOf(now)
	}
	if months <= 0 {
		months = r.MonthsAhead
		if months <= 0 {
			months = DefaultMonthsAhead
		}
	}
	if months > 36 {
		return RebuildReport{}, ErrMonthsRange
	}

	end := from
	for i := 0; i < months; i++ {
		end = end.Next()
	}
	span, err := daterange.New(from.First(), end.First())
	if err != nil {
		return RebuildReport{}, err
	}
	snap, err := pricing.LoadSnapshot(ctx, r.Rules, id, span)
	if err != nil {
		return RebuildReport{}, err
	}

	report := RebuildReport{PropertyID: id}
	for ym := from; ym != end; ym = ym.Next() {
		cal := r.Builder.BuildMonth(snap, ym, now)
		if r.Calendars != nil {
			if err := r.Calendars.SaveMonth(ctx, cal); err != nil {
				return report, fmt.Errorf("save calendar %s: %w", ym, err)
			}
		}
		report.Months = append(report.Months, ym)
		if r.Publisher == nil {
			continue
		}
		if err := r.Publisher.PublishMonth(ctx, cal); err != nil {
			if r.Logger != nil {
				r.Logger.Warn("calendar snapshot publish failed", "property_id", id, "month", ym.String(), "error", err)
			}
			continue
		}
		report.Published++
	}
	if r.Logger != nil {
		r.Logger.Info("price calendar rebuilt", "property_id", id, "from", from.String(), "months", len(report.Months), "published", report.Published)
	}
	return report, nil
}

// RebuildAll runs Rebuild for every property in the catalog. A property that fails is
// logged and reported in Failed; the others are still rebuilt. Invalid arguments fail
// the whole batch before any property is touched.
func (r *Rebuilder) RebuildAll(ctx context.Context, from daterange.YearMonth, months int) (BatchReport, error) {
	if r.Properties == nil {
		return BatchReport{}, ErrCatalogMissing
	}
	if months > 36 {
		return BatchReport{}, ErrMonthsRange
	}
	ids, err := r.Properties.PropertyIDs(ctx)
	if err != nil {
		return BatchReport{}, fmt.Errorf("list properties: %w", err)
	}
	var batch BatchReport
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		report, err := r.Rebuild(ctx, id, from, months)
		if err != nil {
			batch.Failed = append(batch.Failed, id)
			if r.Logger != nil {
				r.Logger.Warn("price calendar rebuild failed", "property_id", id, "error", err)
			}
			continue
		}
		batch.Reports = append(batch.Reports, report)
	}
	return batch, nil
}

// Month returns the cached month, building and caching it when missing.
func (r *Rebuilder) Month(ctx context.Context, id property.ID, ym daterange.YearMonth) (pricing.MonthCalendar, error) {
	if r.Rules == nil {
		return pricing.MonthCalendar{}, ErrRulesMissing
	}
	if r.Calendars != nil {
		cal, ok, err := r.Calendars.Month(ctx, id, ym)
		if err != nil {
			return pricing.MonthCalendar{}, err
		}
		if ok {
			return cal, nil
		}
	}
	snap, err := pricing.LoadSnapshot(ctx, r.Rules, id, ym.Range())
	if err != nil {
		return pricing.MonthCalendar{}, err
	}
	cal := r.Builder.BuildMonth(snap, ym, r.now())
	if r.Calendars != nil {
		if err := r.Calendars.SaveMonth(ctx, cal); err != nil {
			return pricing.MonthCalendar{}, err
		}
	}
	return cal, nil
}
