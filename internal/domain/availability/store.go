package availability

import (
	"context"

	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

// UpdateFunc mutates a record inside an atomic read-modify-write. Changes are persisted
// only when it returns nil; ErrUnchanged skips the write without failing.
type UpdateFunc func(rec *Record) error

// Store persists availability records. Records that were never written read as empty.
type Store interface {
	Records(ctx context.Context, id property.ID, months []daterange.YearMonth) (map[daterange.YearMonth]*Record, error)
	// UpdateRecord atomically applies fn to one record, creating it lazily.
	UpdateRecord(ctx context.Context, key Key, fn UpdateFunc) error
	// HeldKeys lists records carrying hold entries; an empty id scans every property.
	HeldKeys(ctx context.Context, id property.ID) ([]Key, error)
}

// TxStore can update several month records of one property in a single transaction.
type TxStore interface {
	Store
	UpdateRecords(ctx context.Context, id property.ID, months []daterange.YearMonth, fn func(records map[daterange.YearMonth]*Record) error) error
}
