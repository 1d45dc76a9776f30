package availability

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/domain/shared/events"
	"rentalspot/internal/domain/shared/saga"
)

// Ledger guards the night-by-night availability of properties. Every mutation is an
// atomic record update; a range spanning months uses a store transaction when the store
// offers one and compensating rollback otherwise.
type Ledger struct {
	Store  Store
	Events events.Sink
	Clock  func() time.Time
	// Logger is used only by SweepExpiredHolds to report skipped records.
	Logger *slog.Logger

	mu         sync.Mutex
	lastExpiry time.Time
}

// Bookability is the result of a range check.
type Bookability struct {
	Bookable     bool
	BlockedDates []time.Time
}

// PlacedHold describes a hold returned to the caller.
type PlacedHold struct {
	ID         HoldID
	PropertyID property.ID
	Range      daterange.DateRange
	BookingRef string
	Contact    string
	ExpiresAt  time.Time
}

type HoldRequest struct {
	PropertyID property.ID
	Range      daterange.DateRange
	BookingRef string
	Contact    string
	TTL        time.Duration
}

// SweepReport summarises one sweep run.
type SweepReport struct {
	Scanned  int
	Released int
	Failures []SweepFailure
}

type SweepFailure struct {
	Key Key
	Err error
}

func (l *Ledger) now() time.Time {
	if l.Clock != nil {
		return l.Clock().UTC()
	}
	return time.Now().UTC()
}

// placementExpiry returns now+ttl at millisecond precision, moved past the expiry of the
// previous placement so every hold placed through l gets its own identity.
func (l *Ledger) placementExpiry(now time.Time, ttl time.Duration) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp := now.Add(ttl).Truncate(time.Millisecond)
	if !exp.After(l.lastExpiry) {
		exp = l.lastExpiry.Add(time.Millisecond)
	}
	l.lastExpiry = exp
	return exp
}

func (l *Ledger) publish(ctx context.Context, evs ...events.DomainEvent) {
	if l.Events != nil {
		l.Events.Publish(ctx, evs...)
	}
}

type monthNights struct {
	month daterange.YearMonth
	days  []int
}

func splitByMonth(dr daterange.DateRange) []monthNights {
	var out []monthNights
	for _, night := range dr.EachNight() {
		ym := daterange.MonthOf(night)
		if len(out) == 0 || out[len(out)-1].month != ym {
			out = append(out, monthNights{month: ym})
		}
		last := &out[len(out)-1]
		last.days = append(last.days, night.Day())
	}
	return out
}

func monthsOf(plan []monthNights) []daterange.YearMonth {
	out := make([]daterange.YearMonth, 0, len(plan))
	for _, p := range plan {
		out = append(out, p.month)
	}
	return out
}

// IsRangeBookable checks every night of [CheckIn, CheckOut). The checkout day is never
// examined. Holds owned by bookingRef do not block.
func (l *Ledger) IsRangeBookable(ctx context.Context, id property.ID, dr daterange.DateRange, bookingRef string) (Bookability, error) {
	if l.Store == nil {
		return Bookability{}, ErrStoreMissing
	}
	if err := dr.Validate(); err != nil {
		return Bookability{}, err
	}
	plan := splitByMonth(dr)
	records, err := l.Store.Records(ctx, id, monthsOf(plan))
	if err != nil {
		return Bookability{}, err
	}
	now := l.now()
	var blocked []time.Time
	for _, p := range plan {
		rec := records[p.month]
		if rec == nil {
			continue
		}
		blocked = append(blocked, rec.blocked(p.days, bookingRef, now)...)
	}
	return Bookability{Bookable: len(blocked) == 0, BlockedDates: SortDates(blocked)}, nil
}

// monthOp checks and applies an operation to the nights of one record. apply returns an
// undo used for compensation when a later month fails.
type monthOp struct {
	check func(rec *Record, days []int, now time.Time) []time.Time
	apply func(rec *Record, days []int) (undo UpdateFunc)
}

func (l *Ledger) mutateRange(ctx context.Context, id property.ID, dr daterange.DateRange, op monthOp) error {
	plan := splitByMonth(dr)
	now := l.now()
	if tx, ok := l.Store.(TxStore); ok {
		return tx.UpdateRecords(ctx, id, monthsOf(plan), func(records map[daterange.YearMonth]*Record) error {
			var conflicts []time.Time
			for _, p := range plan {
				conflicts = append(conflicts, op.check(records[p.month], p.days, now)...)
			}
			if len(conflicts) > 0 {
				return &ConflictError{Nights: SortDates(conflicts)}
			}
			for _, p := range plan {
				op.apply(records[p.month], p.days)
			}
			return nil
		})
	}
	return l.mutateCompensating(ctx, id, plan, op, now)
}

// mutateCompensating applies month by month. A failure rolls back the months already
// written. A process crash between months leaves a partial hold behind until its expiry
// is swept; that window is the accepted non-atomicity of stores without transactions.
func (l *Ledger) mutateCompensating(ctx context.Context, id property.ID, plan []monthNights, op monthOp, now time.Time) error {
	if len(plan) > 1 {
		records, err := l.Store.Records(ctx, id, monthsOf(plan))
		if err != nil {
			return err
		}
		var conflicts []time.Time
		for _, p := range plan {
			if rec := records[p.month]; rec != nil {
				conflicts = append(conflicts, op.check(rec, p.days, now)...)
			}
		}
		if len(conflicts) > 0 {
			return &ConflictError{Nights: SortDates(conflicts)}
		}
	}

	steps := make([]saga.Step, 0, len(plan))
	for _, p := range plan {
		key := Key{PropertyID: id, Month: p.month}
		days := p.days
		var undo UpdateFunc
		steps = append(steps, saga.Funcs{
			ExecuteFunc: func(ctx context.Context) error {
				return l.Store.UpdateRecord(ctx, key, func(rec *Record) error {
					if conflicts := op.check(rec, days, now); len(conflicts) > 0 {
						return &ConflictError{Nights: SortDates(conflicts)}
					}
					undo = op.apply(rec, days)
					return nil
				})
			},
			CompensateFunc: func(ctx context.Context) error {
				if err := l.Store.UpdateRecord(ctx, key, undo); err != nil && !errors.Is(err, ErrUnchanged) {
					return err
				}
				return nil
			},
		})
	}
	return saga.Run(ctx, steps...)
}

// PlaceHold marks every night of the range as held for req.BookingRef, or none of them.
// Re-placing a hold with the same booking reference refreshes its expiry.
func (l *Ledger) PlaceHold(ctx context.Context, req HoldRequest) (PlacedHold, error) {
	if l.Store == nil {
		return PlacedHold{}, ErrStoreMissing
	}
	if err := req.Range.Validate(); err != nil {
		return PlacedHold{}, err
	}
	if req.BookingRef == "" {
		return PlacedHold{}, ErrBookingRef
	}
	if req.TTL <= 0 {
		return PlacedHold{}, ErrInvalidTTL
	}
	now := l.now()
	hold := Hold{BookingRef: req.BookingRef, HoldExpiry: l.placementExpiry(now, req.TTL), Contact: req.Contact}

	err := l.mutateRange(ctx, req.PropertyID, req.Range, monthOp{
		check: func(rec *Record, days []int, now time.Time) []time.Time {
			return rec.blocked(days, req.BookingRef, now)
		},
		apply: func(rec *Record, days []int) UpdateFunc {
			previous := make(map[int]Hold)
			for _, d := range days {
				if h, ok := rec.Holds[d]; ok {
					previous[d] = h
				}
				rec.Holds[d] = hold
			}
			return func(rec *Record) error {
				changed := false
				for _, d := range days {
					if cur, ok := rec.Holds[d]; !ok || !cur.Same(hold) {
						continue
					}
					if prev, ok := previous[d]; ok {
						rec.Holds[d] = prev
					} else {
						delete(rec.Holds, d)
					}
					changed = true
				}
				if !changed {
					return ErrUnchanged
				}
				return nil
			}
		},
	})
	if err != nil {
		if ce := IsConflictError(err); ce != nil {
			l.publish(ctx, OverbookingPrevented{PropertyID: req.PropertyID, BookingRef: req.BookingRef, Range: req.Range, Nights: ce.Nights, At: now})
		}
		return PlacedHold{}, err
	}
	placed := PlacedHold{
		ID:         NewHoldID(req.BookingRef, req.Range, hold.HoldExpiry),
		PropertyID: req.PropertyID,
		Range:      req.Range,
		BookingRef: req.BookingRef,
		Contact:    req.Contact,
		ExpiresAt:  hold.HoldExpiry,
	}
	l.publish(ctx, HoldPlaced{PropertyID: req.PropertyID, HoldID: placed.ID, BookingRef: req.BookingRef, Range: req.Range, ExpiresAt: placed.ExpiresAt, At: now})
	return placed, nil
}

// ReleaseHold clears the nights still carrying this placement. Nights since re-held by
// a later placement, even one with the same booking reference, are left alone.
// Releasing an unknown, released or expired hold is a no-op.
func (l *Ledger) ReleaseHold(ctx context.Context, id property.ID, holdID HoldID) error {
	if l.Store == nil {
		return ErrStoreMissing
	}
	hk, err := holdID.Parse()
	if err != nil {
		return err
	}
	placement := hk.Placement()
	released := 0
	for _, p := range splitByMonth(hk.Range) {
		days := p.days
		err := l.Store.UpdateRecord(ctx, Key{PropertyID: id, Month: p.month}, func(rec *Record) error {
			n := 0
			for _, d := range days {
				if h, ok := rec.Holds[d]; ok && h.Same(placement) {
					delete(rec.Holds, d)
					n++
				}
			}
			if n == 0 {
				return ErrUnchanged
			}
			released += n
			return nil
		})
		if err != nil && !errors.Is(err, ErrUnchanged) {
			return err
		}
	}
	if released > 0 {
		l.publish(ctx, HoldReleased{PropertyID: id, HoldID: holdID, Nights: released, At: l.now()})
	}
	return nil
}

// ConfirmBooking closes every night of the range permanently and clears hold markers.
// The range may be held by bookingRef or not held at all.
func (l *Ledger) ConfirmBooking(ctx context.Context, id property.ID, dr daterange.DateRange, bookingRef string) error {
	if l.Store == nil {
		return ErrStoreMissing
	}
	if err := dr.Validate(); err != nil {
		return err
	}
	if bookingRef == "" {
		return ErrBookingRef
	}
	now := l.now()
	err := l.mutateRange(ctx, id, dr, monthOp{
		check: func(rec *Record, days []int, now time.Time) []time.Time {
			return rec.blocked(days, bookingRef, now)
		},
		apply: func(rec *Record, days []int) UpdateFunc {
			prevHolds := make(map[int]Hold)
			prevOpen := make(map[int]*bool)
			for _, d := range days {
				if h, ok := rec.Holds[d]; ok {
					prevHolds[d] = h
					delete(rec.Holds, d)
				}
				if v, set := rec.Available[d]; set {
					v := v
					prevOpen[d] = &v
				} else {
					prevOpen[d] = nil
				}
				rec.Available[d] = false
			}
			return func(rec *Record) error {
				for _, d := range days {
					if prev := prevOpen[d]; prev != nil {
						rec.Available[d] = *prev
					} else {
						delete(rec.Available, d)
					}
					if h, ok := prevHolds[d]; ok {
						if _, taken := rec.Holds[d]; !taken {
							rec.Holds[d] = h
						}
					}
				}
				return nil
			}
		},
	})
	if err != nil {
		if ce := IsConflictError(err); ce != nil {
			l.publish(ctx, OverbookingPrevented{PropertyID: id, BookingRef: bookingRef, Range: dr, Nights: ce.Nights, At: now})
		}
		return err
	}
	l.publish(ctx, BookingConfirmed{PropertyID: id, BookingRef: bookingRef, Range: dr, At: now})
	return nil
}

// SweepExpiredHolds releases holds whose expiry lies before now. Each record is cleared
// with its own atomic update that re-reads the hold, so a hold refreshed or confirmed in
// the meantime survives. A failing record is logged and skipped.
func (l *Ledger) SweepExpiredHolds(ctx context.Context, id property.ID, now time.Time) (SweepReport, error) {
	if l.Store == nil {
		return SweepReport{}, ErrStoreMissing
	}
	keys, err := l.Store.HeldKeys(ctx, id)
	if err != nil {
		return SweepReport{}, err
	}
	now = now.UTC()
	var report SweepReport
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		var expired []int
		err := l.Store.UpdateRecord(ctx, key, func(rec *Record) error {
			expired = rec.expireHolds(now)
			if len(expired) == 0 {
				return ErrUnchanged
			}
			return nil
		})
		if err != nil && !errors.Is(err, ErrUnchanged) {
			report.Failures = append(report.Failures, SweepFailure{Key: key, Err: err})
			if l.Logger != nil {
				l.Logger.Warn("hold sweep skipped record", "record", key.String(), "error", err)
			}
			continue
		}
		if len(expired) > 0 {
			report.Released += len(expired)
			l.publish(ctx, HoldsExpired{PropertyID: key.PropertyID, Month: key.Month.String(), Days: expired, At: now})
		}
	}
	return report, nil
}

// MonthView returns the day-by-day state of one month.
func (l *Ledger) MonthView(ctx context.Context, id property.ID, ym daterange.YearMonth) ([]DayStatus, error) {
	if l.Store == nil {
		return nil, ErrStoreMissing
	}
	records, err := l.Store.Records(ctx, id, []daterange.YearMonth{ym})
	if err != nil {
		return nil, err
	}
	rec := records[ym]
	if rec == nil {
		rec = NewRecord(Key{PropertyID: id, Month: ym})
	}
	return rec.Days(l.now()), nil
}
