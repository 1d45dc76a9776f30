package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"rentalspot/internal/app/commands"
	"rentalspot/internal/app/dto"
	calendarapp "rentalspot/internal/app/handlers/calendar"
	holdapp "rentalspot/internal/app/handlers/holds"
	"rentalspot/internal/app/handlers/support"
	"rentalspot/internal/app/middleware"
)

const cronTokenHeader = "X-Cron-Token"

// InternalHandler serves scheduler endpoints. The token check itself runs in the
// command pipeline.
type InternalHandler struct {
	Commands commands.Bus
}

func (h InternalHandler) Sweep(c *gin.Context) {
	ctx := middleware.WithCallerToken(c.Request.Context(), c.GetHeader(cronTokenHeader))
	cmd := holdapp.SweepHoldsCommand{PropertyID: c.Query("property_id")}
	result, err := commands.Dispatch[holdapp.SweepHoldsCommand, dto.SweepReport](ctx, h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func monthsParam(c *gin.Context) (int, bool) {
	raw := c.Query("months")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(c, support.Invalid("months must be a number"))
		return 0, false
	}
	return n, true
}

func (h InternalHandler) RebuildCalendar(c *gin.Context) {
	months, ok := monthsParam(c)
	if !ok {
		return
	}
	ctx := middleware.WithCallerToken(c.Request.Context(), c.GetHeader(cronTokenHeader))
	cmd := calendarapp.RebuildCalendarCommand{PropertyID: c.Param("id"), From: c.Query("from"), Months: months}
	result, err := commands.Dispatch[calendarapp.RebuildCalendarCommand, dto.RebuildResult](ctx, h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h InternalHandler) RebuildAllCalendars(c *gin.Context) {
	months, ok := monthsParam(c)
	if !ok {
		return
	}
	ctx := middleware.WithCallerToken(c.Request.Context(), c.GetHeader(cronTokenHeader))
	cmd := calendarapp.RebuildAllCalendarsCommand{From: c.Query("from"), Months: months}
	result, err := commands.Dispatch[calendarapp.RebuildAllCalendarsCommand, dto.RebuildAllResult](ctx, h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ InternalHTTP = InternalHandler{}
