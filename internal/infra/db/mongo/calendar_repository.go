package mongo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "rentalspot/internal/domain/pricing"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/domain/shared/money"
	"rentalspot/internal/infra/storage/ruledoc"
)

// CalendarRepository caches built months in price_calendars, keyed {propertyId}_{YYYY-MM}.
type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("price_calendars")}
}

func calendarID(id property.ID, ym daterange.YearMonth) string {
	return string(id) + "_" + ym.String()
}

func (r *CalendarRepository) Month(ctx context.Context, id property.ID, ym daterange.YearMonth) (domainpricing.MonthCalendar, bool, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": calendarID(id, ym)}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return domainpricing.MonthCalendar{}, false, nil
		}
		return domainpricing.MonthCalendar{}, false, err
	}
	cal, err := doc.toCalendar()
	if err != nil {
		return domainpricing.MonthCalendar{}, false, err
	}
	return cal, true, nil
}

func (r *CalendarRepository) SaveMonth(ctx context.Context, cal domainpricing.MonthCalendar) error {
	doc := newCalendarDocument(cal)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

var _ domainpricing.CalendarRepository = (*CalendarRepository)(nil)

type calendarDocument struct {
	ID         string                 `bson:"_id"`
	PropertyID string                 `bson:"propertyId"`
	Month      string                 `bson:"month"`
	Currency   string                 `bson:"currency"`
	Days       map[string]dayDocument `bson:"days"`
	BuiltAt    time.Time              `bson:"builtAt"`
}

type dayDocument struct {
	Date               ruledoc.Day               `bson:"date"`
	BasePrice          ruledoc.Amount            `bson:"basePrice"`
	AdjustedPrice      ruledoc.Amount            `bson:"adjustedPrice"`
	Available          bool                      `bson:"available"`
	MinimumStay        int                       `bson:"minimumStay"`
	IsWeekend          bool                      `bson:"isWeekend"`
	Source             string                    `bson:"priceSource"`
	RuleID             string                    `bson:"ruleId,omitempty"`
	FlatRate           bool                      `bson:"flatRate,omitempty"`
	PricesByGuestCount map[string]ruledoc.Amount `bson:"pricesByGuestCount"`
}

func newCalendarDocument(cal domainpricing.MonthCalendar) calendarDocument {
	doc := calendarDocument{
		ID:         calendarID(cal.PropertyID, cal.Month),
		PropertyID: string(cal.PropertyID),
		Month:      cal.Month.String(),
		Currency:   cal.Currency,
		Days:       make(map[string]dayDocument, len(cal.Days)),
		BuiltAt:    cal.BuiltAt.UTC(),
	}
	for n, d := range cal.Days {
		prices := make(map[string]ruledoc.Amount, len(d.PricesByGuestCount))
		for g, p := range d.PricesByGuestCount {
			prices[strconv.Itoa(g)] = ruledoc.AmountOf(p.Amount)
		}
		doc.Days[strconv.Itoa(n)] = dayDocument{
			Date:               ruledoc.DayOf(d.Date),
			BasePrice:          ruledoc.AmountOf(d.BasePrice.Amount),
			AdjustedPrice:      ruledoc.AmountOf(d.AdjustedPrice.Amount),
			Available:          d.Available,
			MinimumStay:        d.MinimumStay,
			IsWeekend:          d.IsWeekend,
			Source:             string(d.Source),
			RuleID:             d.RuleID,
			FlatRate:           d.FlatRate,
			PricesByGuestCount: prices,
		}
	}
	return doc
}

func (d calendarDocument) toCalendar() (domainpricing.MonthCalendar, error) {
	ym, err := daterange.ParseYearMonth(d.Month)
	if err != nil {
		return domainpricing.MonthCalendar{}, fmt.Errorf("price calendar %s: %w", d.ID, err)
	}
	cal := domainpricing.MonthCalendar{
		PropertyID: property.ID(d.PropertyID),
		Month:      ym,
		Currency:   d.Currency,
		Days:       make(map[int]domainpricing.CalendarDay, len(d.Days)),
		BuiltAt:    d.BuiltAt.UTC(),
	}
	amount := func(a ruledoc.Amount) money.Money {
		return money.Money{Amount: a.Value, Currency: d.Currency}
	}
	for k, day := range d.Days {
		n, err := strconv.Atoi(k)
		if err != nil {
			return domainpricing.MonthCalendar{}, fmt.Errorf("price calendar %s: day %q: %w", d.ID, k, err)
		}
		prices := make(map[int]money.Money, len(day.PricesByGuestCount))
		for g, p := range day.PricesByGuestCount {
			guests, err := strconv.Atoi(g)
			if err != nil {
				return domainpricing.MonthCalendar{}, fmt.Errorf("price calendar %s: guests %q: %w", d.ID, g, err)
			}
			prices[guests] = amount(p)
		}
		cal.Days[n] = domainpricing.CalendarDay{
			Date:               day.Date.Time,
			BasePrice:          amount(day.BasePrice),
			AdjustedPrice:      amount(day.AdjustedPrice),
			Available:          day.Available,
			MinimumStay:        day.MinimumStay,
			IsWeekend:          day.IsWeekend,
			Source:             domainpricing.PriceSource(day.Source),
			RuleID:             day.RuleID,
			FlatRate:           day.FlatRate,
			PricesByGuestCount: prices,
		}
	}
	return cal, nil
}
