package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentalspot/internal/app/dto"
	availabilityapp "rentalspot/internal/app/handlers/availability"
	calendarapp "rentalspot/internal/app/handlers/calendar"
	"rentalspot/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

func (h AvailabilityHandler) Month(c *gin.Context) {
	query := availabilityapp.GetMonthQuery{PropertyID: c.Param("id"), Month: c.Param("month")}
	result, err := queries.Ask[availabilityapp.GetMonthQuery, dto.AvailabilityMonth](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type CalendarHandler struct {
	Queries queries.Bus
}

func (h CalendarHandler) Month(c *gin.Context) {
	query := calendarapp.GetPriceCalendarQuery{PropertyID: c.Param("id"), Month: c.Param("month")}
	result, err := queries.Ask[calendarapp.GetPriceCalendarQuery, dto.PriceCalendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var (
	_ AvailabilityHTTP = AvailabilityHandler{}
	_ CalendarHTTP     = CalendarHandler{}
)
