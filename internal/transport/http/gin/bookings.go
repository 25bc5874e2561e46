package httpgin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/eventhub/internal/domain"
	redisrepo "github.com/kirinyoku/eventhub/internal/repository/redis"
	"github.com/kirinyoku/eventhub/internal/service"
	"github.com/kirinyoku/eventhub/internal/service/query"
	"github.com/kirinyoku/eventhub/internal/service/reservation"
)

const idemLockTTL = 60 * time.Second

// @Summary  Reserve tickets (idempotent)
// @Param    id  path  int  true  "Event ID"
// @Param    req body  ReserveRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} domain.Booking
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "not enough tickets / idem in progress"
// @Failure  422 {object} ErrorResponse "unknown type / order limit / not bookable"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /events/{id}/bookings [post]
func handleReserve(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req ReserveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ctx := c.Request.Context()

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemReserve(eventID, idemKey)

			if payload, ok, _ := idem.GetResult(ctx, idemStorageKey); ok {
				replay(c, idemKey, payload)
				return
			}

			locked, err := idem.AcquireLock(ctx, idemStorageKey, idemLockTTL)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(ctx, idemStorageKey); ok {
					replay(c, idemKey, payload)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		b, err := svcs.Reservation.Reserve(ctx, reservation.ReserveInput{
			EventID: eventID,
			UserID:  req.UserID,
			Tickets: req.lines(),
			Attendee: domain.AttendeeInfo{
				Name:  req.AttendeeInfo.Name,
				Email: req.AttendeeInfo.Email,
				Phone: req.AttendeeInfo.Phone,
			},
			PaymentMethod: req.PaymentMethod,
			Notes:         req.Notes,
			ClientKey:     "ip:" + c.ClientIP(),
		})
		if err != nil {
			if idemStorageKey != "" {
				_ = idem.Release(ctx, idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		body, err := json.Marshal(b)
		if err != nil {
			respondErr(c, err)
			return
		}

		if idemStorageKey != "" {
			_ = idem.SaveResult(ctx, idemStorageKey, string(body))
			c.Header("Idempotency-Key", idemKey)
		}

		c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
	}
}

func replay(c *gin.Context, idemKey, payload string) {
	c.Header("Idempotency-Key", idemKey)
	c.Data(
		http.StatusCreated,
		"application/json; charset=utf-8",
		[]byte(payload),
	)
}

// @Summary  Get booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} domain.Booking
// @Failure  404 {object} ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Query.GetBooking(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Get booking by reference
// @Param    reference  path  string  true  "Booking reference"
// @Success  200 {object} domain.Booking
// @Failure  404 {object} ErrorResponse
// @Router   /bookings/reference/{reference} [get]
func handleGetBookingByReference(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := svcs.Query.GetBookingByReference(c.Request.Context(), c.Param("reference"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Cancel booking and release its tickets
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Param    req body  CancelRequest true "payload"
// @Success  200 {object} domain.Booking
// @Failure  409 {object} ErrorResponse
// @Router   /bookings/{id}/cancel [post]
func handleCancel(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req CancelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		b, err := svcs.Reservation.Cancel(c.Request.Context(), id, req.CancellationReason)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Check in by booking reference
// @Param    req body  CheckInRequest true "payload"
// @Success  200 {object} domain.Booking
// @Failure  409 {object} AlreadyCheckedInResponse "already checked in"
// @Failure  422 {object} ErrorResponse "payment not completed"
// @Router   /bookings/checkin [post]
func handleCheckIn(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		b, err := svcs.CheckIn.CheckIn(c.Request.Context(), req.BookingReference)
		if err != nil {
			var already domain.AlreadyCheckedInError
			if errors.As(err, &already) {
				c.JSON(http.StatusConflict, AlreadyCheckedInResponse{
					Error:       already.Error(),
					CheckInTime: already.CheckInTime,
					Booking:     b,
				})
				return
			}
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Create mock payment intent
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} domain.PaymentIntent
// @Failure  409 {object} ErrorResponse "payment already completed"
// @Router   /bookings/{id}/payment/intent [post]
func handleCreatePaymentIntent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		intent, err := svcs.Payment.CreateIntent(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, intent)
	}
}

// @Summary  Confirm payment
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Param    req body  ConfirmPaymentRequest true "payload"
// @Success  200 {object} domain.Booking
// @Failure  409 {object} ErrorResponse
// @Router   /bookings/{id}/payment/confirm [post]
func handleConfirmPayment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req ConfirmPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		b, err := svcs.Payment.MarkCompleted(c.Request.Context(), id, req.TransactionID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Mark payment failed
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} domain.Booking
// @Failure  409 {object} ErrorResponse
// @Router   /bookings/{id}/payment/fail [post]
func handleFailPayment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Payment.MarkFailed(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Refund a cancelled, paid booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} domain.Booking
// @Failure  409 {object} ErrorResponse
// @Router   /bookings/{id}/refund [post]
func handleRefund(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Payment.Refund(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// --- Lists ---

func listBookings(c *gin.Context, svcs *service.Services, owner func(in *query.ListInput, id int64)) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}

	in := query.ListInput{
		BookingStatus: domain.BookingStatus(q.BookingStatus),
		PaymentStatus: domain.PaymentStatus(q.PaymentStatus),
		Page:          q.Page,
		Limit:         q.Limit,
	}
	owner(&in, id)

	page, err := svcs.Query.ListBookings(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary  List bookings of an event
// @Param    id              path   int     true   "Event ID"
// @Param    booking_status  query  string  false  "confirmed|cancelled|attended|no-show"
// @Param    payment_status  query  string  false  "pending|completed|failed|refunded"
// @Param    page            query  int     false  "page, from 1"
// @Param    limit           query  int     false  "page size"
// @Success  200 {object} domain.BookingPage
// @Router   /events/{id}/bookings [get]
func handleListEventBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		listBookings(c, svcs, func(in *query.ListInput, id int64) { in.EventID = id })
	}
}

// @Summary  List bookings of a user
// @Param    id     path   int  true   "User ID"
// @Param    page   query  int  false  "page, from 1"
// @Param    limit  query  int  false  "page size"
// @Success  200 {object} domain.BookingPage
// @Router   /users/{id}/bookings [get]
func handleListUserBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		listBookings(c, svcs, func(in *query.ListInput, id int64) { in.UserID = id })
	}
}

// @Summary  List bookings of an organizer's events
// @Param    id     path   int  true   "Organizer ID"
// @Param    page   query  int  false  "page, from 1"
// @Param    limit  query  int  false  "page size"
// @Success  200 {object} domain.BookingPage
// @Router   /organizers/{id}/bookings [get]
func handleListOrganizerBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		listBookings(c, svcs, func(in *query.ListInput, id int64) { in.OrganizerID = id })
	}
}

// @Summary  Payment history of a user
// @Param    id     path   int  true   "User ID"
// @Param    page   query  int  false  "page, from 1"
// @Param    limit  query  int  false  "page size"
// @Success  200 {object} domain.BookingPage
// @Router   /users/{id}/payments [get]
func handlePaymentHistory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var q ListQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			badRequest(c, err.Error())
			return
		}
		page, err := svcs.Payment.History(c.Request.Context(), userID, q.Page, q.Limit)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// @Summary  Earnings of an organizer
// @Param    id    path   int     true   "Organizer ID"
// @Param    from  query  string  false  "RFC3339 lower bound on booking creation"
// @Param    to    query  string  false  "RFC3339 upper bound on booking creation"
// @Success  200 {object} domain.Earnings
// @Router   /organizers/{id}/earnings [get]
func handleOrganizerEarnings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		organizerID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var q EarningsQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			badRequest(c, err.Error())
			return
		}
		from, err := parseOptionalRFC3339(q.From)
		if err != nil {
			badRequest(c, "invalid from (RFC3339)")
			return
		}
		to, err := parseOptionalRFC3339(q.To)
		if err != nil {
			badRequest(c, "invalid to (RFC3339)")
			return
		}
		e, err := svcs.Payment.Earnings(
			c.Request.Context(),
			organizerID,
			domain.EarningsWindow{From: from, To: to},
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}
