package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentalspot/internal/app/commands"
	"rentalspot/internal/app/handlers/support"
	"rentalspot/internal/app/middleware"
	"rentalspot/internal/app/queries"
	"rentalspot/internal/app/services/calendars"
	"rentalspot/internal/app/services/quoting"
	"rentalspot/internal/domain/availability"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/domain/shared/money"
)

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, daterange.FormatDate(d))
	}
	return out
}

// writeError maps typed failures to status codes and bodies.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	if ce := availability.IsConflictError(err); ce != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "nights": formatDates(ce.Nights)})
		return
	}
	if ue := availability.IsUnavailableError(err); ue != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unavailable", "blocked_dates": formatDates(ue.Dates)})
		return
	}
	if me := quoting.IsMinimumStayError(err); me != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "minimum_stay", "required": me.Required, "requested": me.Requested})
		return
	}
	if ge := quoting.IsGuestCountError(err); ge != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "guest_count", "requested": ge.Requested, "max": ge.Max})
		return
	}
	if rde := property.IsRuleDataError(err); rde != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rule_data", "field": rde.Field, "reason": rde.Reason})
		return
	}
	switch {
	case errors.Is(err, property.ErrPropertyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "property_not_found"})
	case errors.Is(err, middleware.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, support.ErrInvalidInput),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, daterange.ErrInvalidDate),
		errors.Is(err, availability.ErrBookingRef),
		errors.Is(err, availability.ErrInvalidHoldID),
		errors.Is(err, availability.ErrInvalidTTL),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, calendars.ErrMonthsRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, commands.ErrNilBus), errors.Is(err, queries.ErrNilBus):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
