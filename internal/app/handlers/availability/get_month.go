package availability

import (
	"context"

	"rentalspot/internal/app/dto"
	"rentalspot/internal/app/handlers/support"
	"rentalspot/internal/app/policies"
	"rentalspot/internal/app/queries"
)

const getMonthKey = "availability.month"

type GetMonthQuery struct {
	PropertyID string
	Month      string
}

func (q GetMonthQuery) Key() string { return getMonthKey }

type GetMonthHandler struct {
	Ledger policies.AvailabilityView
}

func (h *GetMonthHandler) Handle(ctx context.Context, q GetMonthQuery) (dto.AvailabilityMonth, error) {
	id, err := support.PropertyID(q.PropertyID)
	if err != nil {
		return dto.AvailabilityMonth{}, err
	}
	ym, err := support.Month(q.Month)
	if err != nil {
		return dto.AvailabilityMonth{}, err
	}
	days, err := h.Ledger.MonthView(ctx, id, ym)
	if err != nil {
		return dto.AvailabilityMonth{}, err
	}
	return dto.MapAvailabilityMonth(id, ym, days), nil
}

var _ queries.Handler[GetMonthQuery, dto.AvailabilityMonth] = (*GetMonthHandler)(nil)
