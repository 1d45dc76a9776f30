package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentalspot/internal/app/commands"
	"rentalspot/internal/app/dto"
	holdapp "rentalspot/internal/app/handlers/holds"
	"rentalspot/internal/app/handlers/support"
)

type HoldHandler struct {
	Commands commands.Bus
}

type placeHoldRequest struct {
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	BookingRef string `json:"booking_ref"`
	Contact    string `json:"contact"`
	TTLSeconds int    `json:"ttl_seconds"`
}

func (h HoldHandler) Place(c *gin.Context) {
	var req placeHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, support.Invalid("%v", err))
		return
	}
	cmd := holdapp.PlaceHoldCommand{
		PropertyID:      c.Param("id"),
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		BookingRef:      req.BookingRef,
		Contact:         req.Contact,
		TTL:             time.Duration(req.TTLSeconds) * time.Second,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[holdapp.PlaceHoldCommand, dto.Hold](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h HoldHandler) Release(c *gin.Context) {
	cmd := holdapp.ReleaseHoldCommand{PropertyID: c.Param("id"), HoldID: c.Param("holdId")}
	result, err := commands.Dispatch[holdapp.ReleaseHoldCommand, holdapp.ReleaseResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type confirmRequest struct {
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	BookingRef string `json:"booking_ref"`
	Guests     int    `json:"guests"`
	ShownTotal string `json:"shown_total"`
	Currency   string `json:"currency"`
}

func (h HoldHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, support.Invalid("%v", err))
		return
	}
	cmd := holdapp.ConfirmBookingCommand{
		PropertyID:      c.Param("id"),
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		BookingRef:      req.BookingRef,
		Guests:          req.Guests,
		ShownTotal:      req.ShownTotal,
		Currency:        req.Currency,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[holdapp.ConfirmBookingCommand, dto.Confirmation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HoldHTTP = HoldHandler{}
