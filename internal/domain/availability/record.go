package availability

import (
	"sort"
	"time"

	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

// Key addresses one availability record: {propertyId}_{YYYY-MM}.
type Key struct {
	PropertyID property.ID
	Month      daterange.YearMonth
}

func (k Key) String() string {
	return string(k.PropertyID) + "_" + k.Month.String()
}

// Hold is a time-boxed claim on a night, stored per day.
type Hold struct {
	BookingRef string
	HoldExpiry time.Time
	Contact    string
}

// Same reports whether h and other are the same placement, at the store's millisecond
// precision.
func (h Hold) Same(other Hold) bool {
	return h.BookingRef == other.BookingRef &&
		h.HoldExpiry.Truncate(time.Millisecond).Equal(other.HoldExpiry.Truncate(time.Millisecond))
}

// Expired reports whether the hold lapsed before now.
func (h Hold) Expired(now time.Time) bool {
	return h.HoldExpiry.Before(now)
}

// Record is the authoritative availability of one property for one month. Days are
// addressed by day of month. A missing Available entry means the night is open.
type Record struct {
	PropertyID property.ID
	Month      daterange.YearMonth
	Available  map[int]bool
	Holds      map[int]Hold
	Version    int64
	UpdatedAt  time.Time
}

func NewRecord(key Key) *Record {
	return &Record{
		PropertyID: key.PropertyID,
		Month:      key.Month,
		Available:  map[int]bool{},
		Holds:      map[int]Hold{},
	}
}

func (r *Record) Key() Key {
	return Key{PropertyID: r.PropertyID, Month: r.Month}
}

func (r *Record) Clone() *Record {
	out := *r
	out.Available = make(map[int]bool, len(r.Available))
	for d, v := range r.Available {
		out.Available[d] = v
	}
	out.Holds = make(map[int]Hold, len(r.Holds))
	for d, h := range r.Holds {
		out.Holds[d] = h
	}
	return &out
}

// NightBlocked reports whether the night cannot be taken by bookingRef. Closed nights
// block everyone; an unexpired hold blocks everyone but its owner.
func (r *Record) NightBlocked(day int, bookingRef string, now time.Time) bool {
	if open, set := r.Available[day]; set && !open {
		return true
	}
	h, held := r.Holds[day]
	if !held || h.Expired(now) {
		return false
	}
	return bookingRef == "" || h.BookingRef != bookingRef
}

// HasHolds reports whether any hold entry remains.
func (r *Record) HasHolds() bool {
	return len(r.Holds) > 0
}

func (r *Record) blocked(days []int, bookingRef string, now time.Time) []time.Time {
	var out []time.Time
	for _, d := range days {
		if r.NightBlocked(d, bookingRef, now) {
			out = append(out, r.Month.Date(d))
		}
	}
	return out
}

// expireHolds removes holds that lapsed before now and returns their days.
func (r *Record) expireHolds(now time.Time) []int {
	var days []int
	for d, h := range r.Holds {
		if h.Expired(now) {
			days = append(days, d)
		}
	}
	sort.Ints(days)
	for _, d := range days {
		delete(r.Holds, d)
	}
	return days
}

// DayStatus is a read model of one day of a record.
type DayStatus struct {
	Date       time.Time
	Open       bool
	Held       bool
	BookingRef string
	HoldExpiry time.Time
}

// Days lists every day of the month with its state at now.
func (r *Record) Days(now time.Time) []DayStatus {
	out := make([]DayStatus, 0, r.Month.Days())
	for d := 1; d <= r.Month.Days(); d++ {
		st := DayStatus{Date: r.Month.Date(d), Open: true}
		if open, set := r.Available[d]; set && !open {
			st.Open = false
		}
		if h, ok := r.Holds[d]; ok && !h.Expired(now) {
			st.Held = true
			st.BookingRef = h.BookingRef
			st.HoldExpiry = h.HoldExpiry
		}
		out = append(out, st)
	}
	return out
}
