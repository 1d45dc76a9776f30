package ruledoc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	domainpricing "rentalspot/internal/domain/pricing"
)

const fixtureJSON = `{
  "property": {
    "id": "villa-1",
    "currency": "usd",
    "basePricePerNight": "200.00",
    "baseOccupancy": 4,
    "extraGuestFeePerNight": 25,
    "maxGuests": 8,
    "cleaningFee": "60",
    "weekendPricing": {"enabled": true, "multiplier": 1.2},
    "lengthOfStayDiscounts": [{"minNights": 7, "discountPercentage": 5}]
  },
  "seasonalPricing": [
    {"id": "summer", "startDate": "2025-06-01", "endDate": "2025-08-31", "priceMultiplier": "1.5", "minimumStay": 3}
  ],
  "dateOverrides": [
    {"id": "o1", "date": "2025-07-04", "customPrice": "500"},
    {"id": "o2", "date": "2025-07-05", "available": false},
    {"id": "o3", "date": "2025-07-06", "available": true}
  ]
}`

func TestFixtureRules(t *testing.T) {
	var fx Fixture
	if err := json.Unmarshal([]byte(fixtureJSON), &fx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg, seasons, overrides, err := fx.Rules(true)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}
	if cfg.Currency != "USD" || cfg.MinimumStay != 1 {
		t.Errorf("config: got %s/%d, want USD/1", cfg.Currency, cfg.MinimumStay)
	}
	if !cfg.ExtraGuestFeePerNight.Amount.Equal(decimal.NewFromInt(25)) {
		t.Errorf("extra guest fee: got %s, want 25", cfg.ExtraGuestFeePerNight.Amount)
	}
	if len(cfg.Weekend.Days) != 2 || cfg.Weekend.Days[0] != time.Friday {
		t.Errorf("weekend days: got %v, want [Friday Saturday]", cfg.Weekend.Days)
	}
	if len(seasons) != 1 || !seasons[0].Enabled || seasons[0].PropertyID != "villa-1" {
		t.Fatalf("seasons: got %+v", seasons)
	}
	if len(overrides) != 2 {
		t.Fatalf("overrides: got %d, want 2 (no-op override dropped)", len(overrides))
	}
	price, ok := overrides[0].(domainpricing.PriceOverride)
	if !ok {
		t.Fatalf("first override: got %T, want PriceOverride", overrides[0])
	}
	if !price.FlatRate || price.Price.Currency != "USD" {
		t.Errorf("price override: got flat=%v currency=%s", price.FlatRate, price.Price.Currency)
	}
	if _, ok := overrides[1].(domainpricing.BlockedOverride); !ok {
		t.Errorf("second override: got %T, want BlockedOverride", overrides[1])
	}
}

func TestUnknownWeekday(t *testing.T) {
	doc := PropertyDocument{
		ID:                "p",
		Currency:          "EUR",
		BasePricePerNight: AmountOf(decimal.NewFromInt(100)),
		WeekendPricing:    &WeekendDocument{Enabled: true, WeekendDays: []string{"funday"}},
	}
	if _, err := doc.Config(); err == nil {
		t.Fatalf("expected rule data error")
	}
}

func TestAmountDecodesNumericBSON(t *testing.T) {
	cases := []struct {
		name string
		doc  bson.M
		want string
	}{
		{"string", bson.M{"customPrice": "199.99"}, "199.99"},
		{"double", bson.M{"customPrice": 150.5}, "150.5"},
		{"int32", bson.M{"customPrice": int32(80)}, "80"},
		{"int64", bson.M{"customPrice": int64(90)}, "90"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := bson.Marshal(tc.doc)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var out OverrideDocument
			if err := bson.Unmarshal(data, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !out.CustomPrice.Valid || out.CustomPrice.Value.String() != tc.want {
				t.Errorf("amount: got %v, want %s", out.CustomPrice, tc.want)
			}
		})
	}
}

func TestDayDecodesBSONDate(t *testing.T) {
	data, err := bson.Marshal(bson.M{"date": time.Date(2025, 7, 4, 15, 30, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out OverrideDocument
	if err := bson.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := out.Date.String(); got != "2025-07-04" {
		t.Errorf("date: got %s, want 2025-07-04", got)
	}
}

func TestPropertyDocumentSurvivesBSON(t *testing.T) {
	var fx Fixture
	if err := json.Unmarshal([]byte(fixtureJSON), &fx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want, err := fx.Property.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	data, err := bson.Marshal(fx.Property)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc PropertyDocument
	if err := bson.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal bson: %v", err)
	}
	back, err := doc.Config()
	if err != nil {
		t.Fatalf("config after bson: %v", err)
	}
	if !back.BasePricePerNight.Amount.Equal(want.BasePricePerNight.Amount) || back.MaxGuests != want.MaxGuests {
		t.Errorf("bson: got %+v, want %+v", back, want)
	}
	if len(back.StayDiscounts) != 1 || !back.StayDiscounts[0].Percentage.Equal(decimal.NewFromInt(5)) {
		t.Errorf("discounts: got %+v", back.StayDiscounts)
	}
}
