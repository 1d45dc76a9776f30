package availability

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"rentalspot/internal/domain/shared/daterange"
)

var (
	ErrInvalidHoldID  = errors.New("availability: invalid hold id")
	ErrBookingRef     = errors.New("availability: booking reference required")
	ErrInvalidTTL     = errors.New("availability: hold ttl must be positive")
	ErrStoreMissing   = errors.New("availability: record store missing")
	ErrConcurrentEdit = errors.New("availability: record changed concurrently")
	// ErrUnchanged is returned from an update func to skip the write.
	ErrUnchanged = errors.New("availability: record unchanged")
)

// ConflictError reports nights already held by another party or closed.
type ConflictError struct {
	Nights []time.Time
}

func (e *ConflictError) Error() string {
	return "availability: conflicting nights " + formatDates(e.Nights)
}

func IsConflictError(err error) *ConflictError {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

// UnavailableError lists every unbookable night of a requested range.
type UnavailableError struct {
	Dates []time.Time
}

func (e *UnavailableError) Error() string {
	return "availability: unavailable nights " + formatDates(e.Dates)
}

func IsUnavailableError(err error) *UnavailableError {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}

func formatDates(dates []time.Time) string {
	parts := make([]string, 0, len(dates))
	for _, d := range dates {
		parts = append(parts, daterange.FormatDate(d))
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}

// SortDates orders dates ascending and drops duplicates.
func SortDates(dates []time.Time) []time.Time {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	out := dates[:0]
	for i, d := range dates {
		if i > 0 && d.Equal(dates[i-1]) {
			continue
		}
		out = append(out, d)
	}
	return out
}
