package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "rentalspot/internal/domain/availability"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

const casAttempts = 5

var errVersionMismatch = errors.New("mongo: availability version mismatch")

// AvailabilityStore keeps one document per property month in the availability collection.
// Every write is a compare-and-swap on the document version.
type AvailabilityStore struct {
	col *mongo.Collection
}

func NewAvailabilityStore(db *mongo.Database) *AvailabilityStore {
	col := db.Collection("availability")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{Keys: bson.D{{Key: "holdCount", Value: 1}, {Key: "propertyId", Value: 1}}})
	return &AvailabilityStore{col: col}
}

func (s *AvailabilityStore) Records(ctx context.Context, id property.ID, months []daterange.YearMonth) (map[daterange.YearMonth]*domainavailability.Record, error) {
	ids := make([]string, 0, len(months))
	for _, ym := range months {
		ids = append(ids, domainavailability.Key{PropertyID: id, Month: ym}.String())
	}
	cur, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []availabilityDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make(map[daterange.YearMonth]*domainavailability.Record, len(months))
	for _, d := range docs {
		rec, err := d.toRecord()
		if err != nil {
			return nil, err
		}
		out[rec.Month] = rec
	}
	for _, ym := range months {
		if _, ok := out[ym]; !ok {
			out[ym] = domainavailability.NewRecord(domainavailability.Key{PropertyID: id, Month: ym})
		}
	}
	return out, nil
}

// UpdateRecord retries the read-modify-write while another writer wins the version race.
func (s *AvailabilityStore) UpdateRecord(ctx context.Context, key domainavailability.Key, fn domainavailability.UpdateFunc) error {
	for attempt := 0; attempt < casAttempts; attempt++ {
		rec, err := s.load(ctx, key)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		err = s.save(ctx, rec)
		if errors.Is(err, errVersionMismatch) {
			continue
		}
		return err
	}
	return domainavailability.ErrConcurrentEdit
}

func (s *AvailabilityStore) HeldKeys(ctx context.Context, id property.ID) ([]domainavailability.Key, error) {
	filter := bson.M{"holdCount": bson.M{"$gt": 0}}
	if id != "" {
		filter["propertyId"] = string(id)
	}
	opts := options.Find().SetProjection(bson.M{"propertyId": 1, "month": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []availabilityDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	keys := make([]domainavailability.Key, 0, len(docs))
	for _, d := range docs {
		ym, err := daterange.ParseYearMonth(d.Month)
		if err != nil {
			return nil, fmt.Errorf("availability %s: %w", d.ID, err)
		}
		keys = append(keys, domainavailability.Key{PropertyID: property.ID(d.PropertyID), Month: ym})
	}
	return keys, nil
}

func (s *AvailabilityStore) load(ctx context.Context, key domainavailability.Key) (*domainavailability.Record, error) {
	var doc availabilityDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key.String()}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return domainavailability.NewRecord(key), nil
		}
		return nil, err
	}
	return doc.toRecord()
}

func (s *AvailabilityStore) save(ctx context.Context, rec *domainavailability.Record) error {
	doc := newAvailabilityDocument(rec)
	filter := bson.M{"_id": doc.ID, "version": rec.Version}
	doc.Version = rec.Version + 1
	doc.UpdatedAt = time.Now().UTC()
	res, err := s.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errVersionMismatch
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return errVersionMismatch
	}
	rec.Version = doc.Version
	rec.UpdatedAt = doc.UpdatedAt
	return nil
}

// TxAvailabilityStore adds multi-document transactions. It needs a replica set.
type TxAvailabilityStore struct {
	*AvailabilityStore
}

func NewTxAvailabilityStore(db *mongo.Database) TxAvailabilityStore {
	return TxAvailabilityStore{AvailabilityStore: NewAvailabilityStore(db)}
}

func (s TxAvailabilityStore) UpdateRecords(ctx context.Context, id property.ID, months []daterange.YearMonth, fn func(map[daterange.YearMonth]*domainavailability.Record) error) error {
	session, err := s.col.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)
	txnOpts := options.Transaction().SetReadConcern(s.col.Database().ReadConcern()).SetWriteConcern(s.col.Database().WriteConcern())
	for attempt := 0; attempt < casAttempts; attempt++ {
		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			records := make(map[daterange.YearMonth]*domainavailability.Record, len(months))
			for _, ym := range months {
				rec, err := s.load(sc, domainavailability.Key{PropertyID: id, Month: ym})
				if err != nil {
					return nil, err
				}
				records[ym] = rec
			}
			if err := fn(records); err != nil {
				return nil, err
			}
			for _, ym := range months {
				if err := s.save(sc, records[ym]); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}, txnOpts)
		if errors.Is(err, errVersionMismatch) {
			continue
		}
		return err
	}
	return domainavailability.ErrConcurrentEdit
}

var (
	_ domainavailability.Store   = (*AvailabilityStore)(nil)
	_ domainavailability.TxStore = TxAvailabilityStore{}
)

type availabilityDocument struct {
	ID         string                  `bson:"_id"`
	PropertyID string                  `bson:"propertyId"`
	Month      string                  `bson:"month"`
	Available  map[string]bool         `bson:"available"`
	Holds      map[string]holdDocument `bson:"holds"`
	HoldCount  int                     `bson:"holdCount"`
	Version    int64                   `bson:"version"`
	UpdatedAt  time.Time               `bson:"updatedAt"`
}

type holdDocument struct {
	BookingRef string    `bson:"bookingRef"`
	HoldExpiry time.Time `bson:"holdExpiry"`
	Contact    string    `bson:"contact,omitempty"`
}

func newAvailabilityDocument(rec *domainavailability.Record) availabilityDocument {
	doc := availabilityDocument{
		ID:         rec.Key().String(),
		PropertyID: string(rec.PropertyID),
		Month:      rec.Month.String(),
		Available:  make(map[string]bool, len(rec.Available)),
		Holds:      make(map[string]holdDocument, len(rec.Holds)),
		HoldCount:  len(rec.Holds),
		Version:    rec.Version,
	}
	for d, v := range rec.Available {
		doc.Available[strconv.Itoa(d)] = v
	}
	for d, h := range rec.Holds {
		doc.Holds[strconv.Itoa(d)] = holdDocument{BookingRef: h.BookingRef, HoldExpiry: h.HoldExpiry.UTC(), Contact: h.Contact}
	}
	return doc
}

func (d availabilityDocument) toRecord() (*domainavailability.Record, error) {
	ym, err := daterange.ParseYearMonth(d.Month)
	if err != nil {
		return nil, fmt.Errorf("availability %s: %w", d.ID, err)
	}
	rec := domainavailability.NewRecord(domainavailability.Key{PropertyID: property.ID(d.PropertyID), Month: ym})
	rec.Version = d.Version
	rec.UpdatedAt = d.UpdatedAt
	for k, v := range d.Available {
		day, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("availability %s: day %q: %w", d.ID, k, err)
		}
		rec.Available[day] = v
	}
	for k, h := range d.Holds {
		day, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("availability %s: hold day %q: %w", d.ID, k, err)
		}
		rec.Holds[day] = domainavailability.Hold{BookingRef: h.BookingRef, HoldExpiry: h.HoldExpiry.UTC(), Contact: h.Contact}
	}
	return rec, nil
}
