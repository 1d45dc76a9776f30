package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"rentalspot/internal/app/dto"
	quoteapp "rentalspot/internal/app/handlers/quotes"
	"rentalspot/internal/app/handlers/support"
	"rentalspot/internal/app/queries"
)

type QuoteHandler struct {
	Queries queries.Bus
}

// Quote serves GET /properties/:id/quote?check_in=&check_out=&guests=&booking_ref=
func (h QuoteHandler) Quote(c *gin.Context) {
	guests, err := strconv.Atoi(c.DefaultQuery("guests", "1"))
	if err != nil {
		writeError(c, support.Invalid("guests must be a number"))
		return
	}
	query := quoteapp.GetQuoteQuery{
		PropertyID: c.Param("id"),
		CheckIn:    c.Query("check_in"),
		CheckOut:   c.Query("check_out"),
		Guests:     guests,
		BookingRef: c.Query("booking_ref"),
	}
	result, err := queries.Ask[quoteapp.GetQuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ QuoteHTTP = QuoteHandler{}
