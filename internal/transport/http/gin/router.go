package httpgin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/domain"
	redisrepo "github.com/kirinyoku/eventhub/internal/repository/redis"
	"github.com/kirinyoku/eventhub/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Pinger reports whether a backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires every route. idem and health may be nil: reservations are
// then not deduplicated and /healthz always answers ok.
func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	health Pinger,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS(), MetricsMiddleware())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ops
	r.GET("/healthz", handleHealth(health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// events
	r.GET("/events/:id", handleGetEvent(svcs))
	r.GET("/events/:id/availability", handleGetAvailability(svcs))
	r.GET("/events/:id/bookings", handleListEventBookings(svcs))
	r.GET("/events/:id/bookings/stats", handleEventStats(svcs))
	r.POST("/events/:id/bookings", handleReserve(svcs, idem))

	// bookings
	r.POST("/bookings/checkin", handleCheckIn(svcs))
	r.GET("/bookings/reference/:reference", handleGetBookingByReference(svcs))
	r.GET("/bookings/:id", handleGetBooking(svcs))
	r.POST("/bookings/:id/cancel", handleCancel(svcs))
	r.POST("/bookings/:id/payment/intent", handleCreatePaymentIntent(svcs))
	r.POST("/bookings/:id/payment/confirm", handleConfirmPayment(svcs))
	r.POST("/bookings/:id/payment/fail", handleFailPayment(svcs))
	r.POST("/bookings/:id/refund", handleRefund(svcs))

	// owners
	r.GET("/users/:id/bookings", handleListUserBookings(svcs))
	r.GET("/users/:id/payments", handlePaymentHistory(svcs))
	r.GET("/organizers/:id/bookings", handleListOrganizerBookings(svcs))
	r.GET("/organizers/:id/earnings", handleOrganizerEarnings(svcs))

	// Admin-API
	// TODO: add admin middleware once the auth collaborator issues organizer tokens
	admin := r.Group("/admin")
	{
		admin.POST("/events", handleCreateEvent(svcs))
		admin.PATCH("/events/:id/status", handleSetEventStatus(svcs))
	}

	return r
}

// @Summary  Health check
// @Success  200  {object}  StatusResponse
// @Failure  503  {object}  StatusResponse
// @Router   /healthz [get]
func handleHealth(health Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := health.Ping(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
				return
			}
		}

		c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
	}
}

// --- Events ---

// @Summary  Get event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  domain.Event
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Query.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, e, "public, max-age=60", true)
	}
}

// @Summary  Get availability counters
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  domain.EventCounts
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		cnt, err := svcs.Query.Availability(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// counters move with every sale
		writeJSONWithCache(c, http.StatusOK, cnt, "public, max-age=5", true)
	}
}

// @Summary  Booking statistics of an event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  domain.BookingStats
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id}/bookings/stats [get]
func handleEventStats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		stats, err := svcs.Query.Stats(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// --- Admin ---

// @Summary  Create event with ticket types
// @Param    req body  CreateEventRequest true "payload"
// @Success  201 {object} domain.Event
// @Failure  400 {object} ErrorResponse
// @Router   /admin/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		e, err := svcs.Admin.CreateEvent(c.Request.Context(), req.input(starts))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, e)
	}
}

// @Summary  Set event status and publication
// @Param    id  path  int  true  "Event ID"
// @Param    req body  SetEventStatusRequest true "payload"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /admin/events/{id}/status [patch]
func handleSetEventStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req SetEventStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		err := svcs.Admin.SetEventStatus(
			c.Request.Context(),
			eventID,
			domain.EventStatus(req.Status),
			*req.IsPublished,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}
