package quotes

import (
	"context"
	"strings"

	"rentalspot/internal/app/dto"
	"rentalspot/internal/app/handlers/support"
	"rentalspot/internal/app/policies"
	"rentalspot/internal/app/queries"
	"rentalspot/internal/app/services/quoting"
)

const getQuoteKey = "quotes.get"

type GetQuoteQuery struct {
	PropertyID string
	CheckIn    string
	CheckOut   string
	Guests     int
	BookingRef string
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

func (q GetQuoteQuery) Validate() error {
	if q.Guests < 1 {
		return support.Invalid("guests must be at least 1")
	}
	return nil
}

type GetQuoteHandler struct {
	Quotes policies.QuotePort
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.Quote, error) {
	id, err := support.PropertyID(q.PropertyID)
	if err != nil {
		return dto.Quote{}, err
	}
	dr, err := support.StayRange(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Quote{}, err
	}
	quote, err := h.Quotes.GetQuote(ctx, quoting.Request{
		PropertyID: id,
		Range:      dr,
		Guests:     q.Guests,
		BookingRef: strings.TrimSpace(q.BookingRef),
	})
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(quote), nil
}

var _ queries.Handler[GetQuoteQuery, dto.Quote] = (*GetQuoteHandler)(nil)
