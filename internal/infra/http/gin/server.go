package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentalspot/internal/infra/config"
	"rentalspot/internal/infra/obs"
)

type QuoteHTTP interface {
	Quote(c *gin.Context)
}

type AvailabilityHTTP interface {
	Month(c *gin.Context)
}

type CalendarHTTP interface {
	Month(c *gin.Context)
}

type HoldHTTP interface {
	Place(c *gin.Context)
	Release(c *gin.Context)
	Confirm(c *gin.Context)
}

type InternalHTTP interface {
	Sweep(c *gin.Context)
	RebuildCalendar(c *gin.Context)
	RebuildAllCalendars(c *gin.Context)
}

type Handlers struct {
	Quote        QuoteHTTP
	Availability AvailabilityHTTP
	Calendar     CalendarHTTP
	Hold         HoldHTTP
	Internal     InternalHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter registers every route on a fresh engine.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", cronTokenHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	props := api.Group("/properties/:id")
	if h.Quote != nil {
		props.GET("/quote", h.Quote.Quote)
	}
	if h.Availability != nil {
		props.GET("/availability/:month", h.Availability.Month)
	}
	if h.Calendar != nil {
		props.GET("/calendar/:month", h.Calendar.Month)
	}
	if h.Hold != nil {
		props.POST("/holds", h.Hold.Place)
		props.DELETE("/holds/:holdId", h.Hold.Release)
		props.POST("/bookings/confirm", h.Hold.Confirm)
	}
	if h.Internal != nil {
		internal := api.Group("/internal")
		internal.POST("/holds/sweep", h.Internal.Sweep)
		internal.POST("/properties/:id/calendar/rebuild", h.Internal.RebuildCalendar)
		internal.POST("/calendar/rebuild", h.Internal.RebuildAllCalendars)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
