package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"rentalspot/internal/domain/shared/daterange"
)

func TestOverrideRangeFilterMatchesStringAndDateForms(t *testing.T) {
	dr := daterange.MustParse("2025-06-01", "2025-07-01")
	raw, err := bson.Marshal(overrideRangeFilter("villa-1", dr))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	doc := bson.Raw(raw)
	if got := doc.Lookup("propertyId").StringValue(); got != "villa-1" {
		t.Errorf("propertyId: got %s, want villa-1", got)
	}
	branches, err := doc.Lookup("$or").Array().Values()
	if err != nil {
		t.Fatalf("$or: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("$or branches: got %d, want 2", len(branches))
	}

	byType := map[bsontype.Type]bson.Raw{}
	for _, b := range branches {
		cond := b.Document().Lookup("date").Document()
		byType[cond.Lookup("$gte").Type] = cond
	}
	str, ok := byType[bsontype.String]
	if !ok {
		t.Fatalf("no string branch in %v", doc)
	}
	if str.Lookup("$gte").StringValue() != "2025-06-01" || str.Lookup("$lt").StringValue() != "2025-07-01" {
		t.Errorf("string branch: got %v", str)
	}
	date, ok := byType[bsontype.DateTime]
	if !ok {
		t.Fatalf("no date branch in %v", doc)
	}
	wantFrom := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if !date.Lookup("$gte").Time().Equal(wantFrom) || !date.Lookup("$lt").Time().Equal(wantTo) {
		t.Errorf("date branch: got %v", date)
	}
}
