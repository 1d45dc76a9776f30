package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainavailability "rentalspot/internal/domain/availability"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

// AvailabilityStore keeps month records in memory. Every update runs under one mutex,
// which makes UpdateRecords a real multi-record transaction.
type AvailabilityStore struct {
	mu      sync.Mutex
	records map[domainavailability.Key]*domainavailability.Record
}

// NewAvailabilityStore returns an empty store.
func NewAvailabilityStore() *AvailabilityStore {
	return &AvailabilityStore{records: make(map[domainavailability.Key]*domainavailability.Record)}
}

func (s *AvailabilityStore) Records(ctx context.Context, id property.ID, months []daterange.YearMonth) (map[daterange.YearMonth]*domainavailability.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[daterange.YearMonth]*domainavailability.Record, len(months))
	for _, ym := range months {
		key := domainavailability.Key{PropertyID: id, Month: ym}
		if rec, ok := s.records[key]; ok {
			out[ym] = rec.Clone()
			continue
		}
		out[ym] = domainavailability.NewRecord(key)
	}
	return out, nil
}

func (s *AvailabilityStore) UpdateRecord(ctx context.Context, key domainavailability.Key, fn domainavailability.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.load(key)
	if err := fn(rec); err != nil {
		return err
	}
	s.store(rec)
	return nil
}

func (s *AvailabilityStore) UpdateRecords(ctx context.Context, id property.ID, months []daterange.YearMonth, fn func(map[daterange.YearMonth]*domainavailability.Record) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	working := make(map[daterange.YearMonth]*domainavailability.Record, len(months))
	for _, ym := range months {
		working[ym] = s.load(domainavailability.Key{PropertyID: id, Month: ym})
	}
	if err := fn(working); err != nil {
		return err
	}
	for _, rec := range working {
		s.store(rec)
	}
	return nil
}

func (s *AvailabilityStore) HeldKeys(ctx context.Context, id property.ID) ([]domainavailability.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []domainavailability.Key
	for key, rec := range s.records {
		if id != "" && key.PropertyID != id {
			continue
		}
		if rec.HasHolds() {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}

// load returns a working copy; callers hold the mutex.
func (s *AvailabilityStore) load(key domainavailability.Key) *domainavailability.Record {
	if rec, ok := s.records[key]; ok {
		return rec.Clone()
	}
	return domainavailability.NewRecord(key)
}

func (s *AvailabilityStore) store(rec *domainavailability.Record) {
	rec.Version++
	rec.UpdatedAt = time.Now().UTC()
	s.records[rec.Key()] = rec
}

var _ domainavailability.TxStore = (*AvailabilityStore)(nil)
