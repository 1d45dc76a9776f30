package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "rentalspot/internal/domain/pricing"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/infra/storage/ruledoc"
)

// RuleStore reads pricing rules from the properties, seasonal_pricing and date_overrides
// collections. Overrides are written with YYYY-MM-DD string dates, which sort
// chronologically; documents carrying BSON dates are read as well.
type RuleStore struct {
	properties *mongo.Collection
	seasons    *mongo.Collection
	overrides  *mongo.Collection

	FlatRateDefault bool
}

func NewRuleStore(db *mongo.Database, flatRateDefault bool) *RuleStore {
	s := &RuleStore{
		properties:      db.Collection("properties"),
		seasons:         db.Collection("seasonal_pricing"),
		overrides:       db.Collection("date_overrides"),
		FlatRateDefault: flatRateDefault,
	}
	_, _ = s.seasons.Indexes().CreateOne(context.Background(), mongo.IndexModel{Keys: bson.D{{Key: "propertyId", Value: 1}}})
	_, _ = s.overrides.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "propertyId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return s
}

func (s *RuleStore) PropertyConfig(ctx context.Context, id property.ID) (property.Config, error) {
	var doc ruledoc.PropertyDocument
	if err := s.properties.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return property.Config{}, property.ErrPropertyNotFound
		}
		return property.Config{}, fmt.Errorf("load property %s: %w", id, err)
	}
	return doc.Config()
}

func (s *RuleStore) SeasonalRules(ctx context.Context, id property.ID) ([]domainpricing.SeasonalRule, error) {
	cur, err := s.seasons.Find(ctx, bson.M{"propertyId": string(id)})
	if err != nil {
		return nil, fmt.Errorf("load seasons %s: %w", id, err)
	}
	var docs []ruledoc.SeasonDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode seasons %s: %w", id, err)
	}
	out := make([]domainpricing.SeasonalRule, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Rule())
	}
	return out, nil
}

func (s *RuleStore) DateOverrides(ctx context.Context, id property.ID, dr daterange.DateRange) ([]domainpricing.DateOverride, error) {
	cur, err := s.overrides.Find(ctx, overrideRangeFilter(id, dr), options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("load overrides %s: %w", id, err)
	}
	var docs []ruledoc.OverrideDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode overrides %s: %w", id, err)
	}
	currency := ""
	for _, d := range docs {
		if d.NeedsCurrency() {
			if currency, err = s.currency(ctx, id); err != nil {
				return nil, err
			}
			break
		}
	}
	out := make([]domainpricing.DateOverride, 0, len(docs))
	for _, d := range docs {
		o, err := d.Override(currency, s.FlatRateDefault)
		if err != nil {
			return nil, err
		}
		if o != nil {
			out = append(out, o)
		}
	}
	return out, nil
}

// overrideRangeFilter matches the nights of dr whether the date was written as a
// YYYY-MM-DD string or as a BSON date. Mongo compares only values of the same type.
func overrideRangeFilter(id property.ID, dr daterange.DateRange) bson.M {
	from, to := daterange.Day(dr.CheckIn), daterange.Day(dr.CheckOut)
	return bson.M{
		"propertyId": string(id),
		"$or": bson.A{
			bson.M{"date": bson.M{"$gte": daterange.FormatDate(from), "$lt": daterange.FormatDate(to)}},
			bson.M{"date": bson.M{"$gte": from, "$lt": to}},
		},
	}
}

func (s *RuleStore) currency(ctx context.Context, id property.ID) (string, error) {
	var doc struct {
		Currency string `bson:"currency"`
	}
	opts := options.FindOne().SetProjection(bson.M{"currency": 1})
	if err := s.properties.FindOne(ctx, bson.M{"_id": string(id)}, opts).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return "", property.ErrPropertyNotFound
		}
		return "", err
	}
	return doc.Currency, nil
}

// PropertyIDs lists every stored property.
func (s *RuleStore) PropertyIDs(ctx context.Context) ([]property.ID, error) {
	cur, err := s.properties.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]property.ID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, property.ID(d.ID))
	}
	return ids, nil
}

// SaveFixture upserts a property and its rules.
func (s *RuleStore) SaveFixture(ctx context.Context, fx ruledoc.Fixture) error {
	id := fx.Property.ID
	upsert := options.Replace().SetUpsert(true)
	if _, err := s.properties.ReplaceOne(ctx, bson.M{"_id": id}, fx.Property, upsert); err != nil {
		return fmt.Errorf("save property %s: %w", id, err)
	}
	for _, season := range fx.SeasonalPricing {
		if season.PropertyID == "" {
			season.PropertyID = id
		}
		if _, err := s.seasons.ReplaceOne(ctx, bson.M{"_id": season.ID}, season, upsert); err != nil {
			return fmt.Errorf("save season %s: %w", season.ID, err)
		}
	}
	for _, o := range fx.DateOverrides {
		if o.PropertyID == "" {
			o.PropertyID = id
		}
		if _, err := s.overrides.ReplaceOne(ctx, bson.M{"_id": o.ID}, o, upsert); err != nil {
			return fmt.Errorf("save override %s: %w", o.ID, err)
		}
	}
	return nil
}

var _ domainpricing.RuleStore = (*RuleStore)(nil)
