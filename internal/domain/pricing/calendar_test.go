package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/domain/shared/money"
)

func villaConfig() property.Config {
	return property.Config{
		ID:                    "villa-1",
		Currency:              "EUR",
		BasePricePerNight:     money.Must("180", "EUR"),
		BaseOccupancy:         4,
		ExtraGuestFeePerNight: money.Must("25", "EUR"),
		MaxGuests:             8,
		CleaningFee:           money.Must("60", "EUR"),
		MinimumStay:           1,
		Weekend: property.WeekendPricing{
			Enabled:    true,
			Days:       []time.Weekday{time.Friday, time.Saturday},
			Multiplier: decimal.RequireFromString("1.2"),
		},
	}
}

func date(s string) time.Time {
	d, err := daterange.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustSnapshot(t *testing.T, cfg property.Config, seasons []SeasonalRule, overrides []DateOverride) RuleSnapshot {
	t.Helper()
	snap, err := NewSnapshot(cfg, seasons, overrides)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

func summer(id string, start, end string, mult string, minStay int) SeasonalRule {
	return SeasonalRule{
		ID:          id,
		PropertyID:  "villa-1",
		Start:       date(start),
		End:         date(end),
		Multiplier:  decimal.RequireFromString(mult),
		MinimumStay: minStay,
		Enabled:     true,
	}
}

func TestWeekendAndOccupancyPricing(t *testing.T) {
	snap := mustSnapshot(t, villaConfig(), nil, nil)
	b := NewBuilder(Options{})

	fri := b.BuildDay(snap, date("2025-06-06"))
	if fri.Source != SourceWeekend {
		t.Errorf("Source: got %s, want weekend", fri.Source)
	}
	if got, _ := fri.PriceFor(6); !got.Equal(money.Must("266", "EUR")) {
		t.Errorf("6 guests on Friday: got %s, want 266.00 EUR", got)
	}
	if got, _ := fri.PriceFor(4); !got.Equal(money.Must("216", "EUR")) {
		t.Errorf("4 guests on Friday: got %s, want 216.00 EUR", got)
	}

	sun := b.BuildDay(snap, date("2025-06-08"))
	if sun.Source != SourceBase || sun.IsWeekend {
		t.Errorf("Sunday: got source %s weekend %v", sun.Source, sun.IsWeekend)
	}
	if got, _ := sun.PriceFor(1); !got.Equal(money.Must("180", "EUR")) {
		t.Errorf("1 guest on Sunday: got %s", got)
	}
	if len(sun.PricesByGuestCount) != 8 {
		t.Errorf("guest price entries: got %d, want 8", len(sun.PricesByGuestCount))
	}
}

func TestSeasonSupersedesWeekendByDefault(t *testing.T) {
	snap := mustSnapshot(t, villaConfig(), []SeasonalRule{summer("s1", "2025-06-01", "2025-06-30", "1.5", 3)}, nil)
	day := NewBuilder(Options{}).BuildDay(snap, date("2025-06-06"))
	if day.Source != SourceSeason {
		t.Errorf("Source: got %s, want season", day.Source)
	}
	if !day.AdjustedPrice.Equal(money.Must("270", "EUR")) {
		t.Errorf("AdjustedPrice: got %s, want 270.00 EUR", day.AdjustedPrice)
	}
	if !day.IsWeekend {
		t.Error("IsWeekend must be set regardless of pricing path")
	}
	if day.MinimumStay != 3 {
		t.Errorf("MinimumStay: got %d, want 3", day.MinimumStay)
	}
}

func TestSeasonCompoundsWeekendWhenConfigured(t *testing.T) {
	snap := mustSnapshot(t, villaConfig(), []SeasonalRule{summer("s1", "2025-06-01", "2025-06-30", "1.5", 1)}, nil)
	day := NewBuilder(Options{WeekendStacking: StackingCompound}).BuildDay(snap, date("2025-06-06"))
	if !day.AdjustedPrice.Equal(money.Must("324", "EUR")) {
		t.Errorf("AdjustedPrice: got %s, want 324.00 EUR", day.AdjustedPrice)
	}
}

func TestDisabledSeasonIgnored(t *testing.T) {
	s := summer("s1", "2025-06-01", "2025-06-30", "2", 5)
	s.Enabled = false
	snap := mustSnapshot(t, villaConfig(), []SeasonalRule{s}, nil)
	day := NewBuilder(Options{}).BuildDay(snap, date("2025-06-09"))
	if day.Source != SourceBase || day.MinimumStay != 1 {
		t.Errorf("got source %s min stay %d, want base/1", day.Source, day.MinimumStay)
	}
}

func TestSeasonTieBreaks(t *testing.T) {
	wide := summer("wide", "2025-06-01", "2025-08-31", "1.3", 1)
	wide.Priority = 5
	wide.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	narrow := summer("narrow", "2025-06-09", "2025-06-15", "1.8", 1)
	narrow.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := summer("late", "2025-06-01", "2025-06-30", "1.1", 1)
	late.CreatedAt = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	seasons := []SeasonalRule{wide, narrow, late}

	tests := []struct {
		tb   SeasonTieBreak
		want string
	}{
		{TieBreakPriority, "wide"},
		{TieBreakSpecific, "narrow"},
		{TieBreakLatest, "late"},
	}
	for _, tt := range tests {
		snap := mustSnapshot(t, villaConfig(), seasons, nil)
		day := NewBuilder(Options{SeasonTieBreak: tt.tb}).BuildDay(snap, date("2025-06-10"))
		if day.RuleID != tt.want {
			t.Errorf("%s: got %s, want %s", tt.tb, day.RuleID, tt.want)
		}
	}
}

func TestOverridePrecedence(t *testing.T) {
	meta := func(id, d string) OverrideMeta {
		return OverrideMeta{ID: id, PropertyID: "villa-1", Date: date(d)}
	}
	overrides := []DateOverride{
		BlockedOverride{OverrideMeta: meta("o-block", "2025-06-10")},
		PriceOverride{OverrideMeta: meta("o-flat", "2025-06-06"), Price: money.Must("300", "EUR"), FlatRate: true, MinimumStay: 2},
		PriceOverride{OverrideMeta: meta("o-occ", "2025-06-11"), Price: money.Must("150", "EUR")},
		StayOverride{OverrideMeta: meta("o-stay", "2025-06-12"), MinimumStay: 2},
	}
	seasons := []SeasonalRule{summer("s1", "2025-06-01", "2025-06-30", "1.5", 4)}
	snap := mustSnapshot(t, villaConfig(), seasons, overrides)
	b := NewBuilder(Options{})

	blocked := b.BuildDay(snap, date("2025-06-10"))
	if blocked.Available || blocked.Source != SourceOverride {
		t.Errorf("blocked: got available %v source %s", blocked.Available, blocked.Source)
	}

	flat := b.BuildDay(snap, date("2025-06-06"))
	if got, _ := flat.PriceFor(8); !got.Equal(money.Must("300", "EUR")) {
		t.Errorf("flat rate with 8 guests: got %s, want 300.00 EUR", got)
	}
	if flat.MinimumStay != 2 {
		t.Errorf("flat min stay: got %d, want 2", flat.MinimumStay)
	}

	occ := b.BuildDay(snap, date("2025-06-11"))
	if got, _ := occ.PriceFor(5); !got.Equal(money.Must("175", "EUR")) {
		t.Errorf("non-flat override with 5 guests: got %s, want 175.00 EUR", got)
	}
	if occ.MinimumStay != 1 {
		t.Errorf("price override without min stay keeps property default: got %d", occ.MinimumStay)
	}

	stay := b.BuildDay(snap, date("2025-06-12"))
	if stay.Source != SourceSeason || stay.MinimumStay != 2 {
		t.Errorf("stay override: got source %s min stay %d, want season/2", stay.Source, stay.MinimumStay)
	}
}

func TestBuildMonthCoversEveryDay(t *testing.T) {
	snap := mustSnapshot(t, villaConfig(), nil, nil)
	ym := daterange.YearMonth{Year: 2024, Month: time.February}
	cal := NewBuilder(Options{}).BuildMonth(snap, ym, time.Now())
	if len(cal.Days) != 29 {
		t.Fatalf("days: got %d, want 29", len(cal.Days))
	}
	if _, ok := cal.Day(date("2024-03-01")); ok {
		t.Error("Day must not resolve dates outside the month")
	}
	if d, ok := cal.Day(date("2024-02-29")); !ok || d.Date.Day() != 29 {
		t.Errorf("Day(29): got %v %v", d.Date, ok)
	}
}

func TestSnapshotRejectsMalformedRules(t *testing.T) {
	noBase := villaConfig()
	noBase.BasePricePerNight = money.Money{}
	if _, err := NewSnapshot(noBase, nil, nil); property.IsRuleDataError(err) == nil {
		t.Errorf("missing base price: got %v, want RuleDataError", err)
	}

	bad := summer("s1", "2025-06-10", "2025-06-01", "1.2", 1)
	if _, err := NewSnapshot(villaConfig(), []SeasonalRule{bad}, nil); property.IsRuleDataError(err) == nil {
		t.Errorf("inverted season: got %v, want RuleDataError", err)
	}

	dup := []DateOverride{
		BlockedOverride{OverrideMeta: OverrideMeta{ID: "a", Date: date("2025-06-10")}},
		StayOverride{OverrideMeta: OverrideMeta{ID: "b", Date: date("2025-06-10")}, MinimumStay: 2},
	}
	_, err := NewSnapshot(villaConfig(), nil, dup)
	var rde *property.RuleDataError
	if !errors.As(err, &rde) {
		t.Errorf("duplicate overrides: got %v, want RuleDataError", err)
	}
}

func TestDecodeOverride(t *testing.T) {
	price := money.Must("200", "EUR")
	minStay := 3
	flat := false

	o, err := DecodeOverride(RawOverride{ID: "1", Date: date("2025-06-01"), Available: false, CustomPrice: &price}, true)
	if _, ok := o.(BlockedOverride); err != nil || !ok {
		t.Errorf("unavailable with price: got %T %v, want BlockedOverride", o, err)
	}

	o, _ = DecodeOverride(RawOverride{ID: "2", Date: date("2025-06-01"), Available: true, CustomPrice: &price}, true)
	if p, ok := o.(PriceOverride); !ok || !p.FlatRate {
		t.Errorf("absent flatRate should use default true: got %#v", o)
	}

	o, _ = DecodeOverride(RawOverride{ID: "3", Date: date("2025-06-01"), Available: true, CustomPrice: &price, FlatRate: &flat}, true)
	if p, ok := o.(PriceOverride); !ok || p.FlatRate {
		t.Errorf("explicit flatRate=false: got %#v", o)
	}

	o, _ = DecodeOverride(RawOverride{ID: "4", Date: date("2025-06-01"), Available: true, MinimumStay: &minStay}, false)
	if s, ok := o.(StayOverride); !ok || s.MinimumStay != 3 {
		t.Errorf("min stay only: got %#v", o)
	}

	o, err = DecodeOverride(RawOverride{ID: "5", Date: date("2025-06-01"), Available: true}, false)
	if o != nil || err != nil {
		t.Errorf("empty override: got %#v %v, want nil", o, err)
	}
}
