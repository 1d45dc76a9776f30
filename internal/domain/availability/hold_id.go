package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rentalspot/internal/domain/shared/daterange"
)

// HoldID names a placed hold as {bookingRef}@{checkIn}..{checkOut}~{expiryUnixMilli}.
// The expiry identifies the placement, so the stored hold entry keeps its
// {bookingRef, holdExpiry, contact} shape.
type HoldID string

// HoldKey is the parsed form of a HoldID.
type HoldKey struct {
	BookingRef string
	Range      daterange.DateRange
	ExpiresAt  time.Time
}

// Placement is the hold entry a key refers to.
func (k HoldKey) Placement() Hold {
	return Hold{BookingRef: k.BookingRef, HoldExpiry: k.ExpiresAt}
}

func NewHoldID(bookingRef string, dr daterange.DateRange, expiresAt time.Time) HoldID {
	return HoldID(fmt.Sprintf("%s@%s~%d", bookingRef, dr, expiresAt.UnixMilli()))
}

func (id HoldID) Parse() (HoldKey, error) {
	s := string(id)
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return HoldKey{}, ErrInvalidHoldID
	}
	rest, stamp, ok := strings.Cut(s[at+1:], "~")
	if !ok {
		return HoldKey{}, ErrInvalidHoldID
	}
	ms, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil || ms <= 0 {
		return HoldKey{}, ErrInvalidHoldID
	}
	bounds := strings.SplitN(rest, "..", 2)
	if len(bounds) != 2 {
		return HoldKey{}, ErrInvalidHoldID
	}
	dr, err := daterange.Parse(bounds[0], bounds[1])
	if err != nil {
		return HoldKey{}, fmt.Errorf("%w: %v", ErrInvalidHoldID, err)
	}
	return HoldKey{BookingRef: s[:at], Range: dr, ExpiresAt: time.UnixMilli(ms).UTC()}, nil
}
