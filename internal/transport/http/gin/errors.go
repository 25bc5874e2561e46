package httpgin

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/eventhub/internal/domain"
)

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAvailabilityConflict),
		errors.Is(err, domain.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOrderLimitExceeded),
		errors.Is(err, domain.ErrUnknownTicketType),
		errors.Is(err, domain.ErrEventNotBookable),
		errors.Is(err, domain.ErrPaymentPrecondition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the innermost domain message, without the operation
// chain that wrapped it.
func publicMessage(err error) string {
	var (
		ve  domain.ValidationError
		ace domain.AvailabilityConflictError
		ole domain.OrderLimitExceededError
		ute domain.UnknownTicketTypeError
		sce domain.StateConflictError
		aci domain.AlreadyCheckedInError
		rle domain.RateLimitedError
	)

	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &ace):
		return ace.Error()
	case errors.As(err, &ole):
		return ole.Error()
	case errors.As(err, &ute):
		return ute.Error()
	case errors.As(err, &aci):
		return aci.Error()
	case errors.As(err, &sce):
		return sce.Error()
	case errors.As(err, &rle):
		return rle.Error()
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrEventNotBookable):
		return domain.ErrEventNotBookable.Error()
	case errors.Is(err, domain.ErrPaymentPrecondition):
		return domain.ErrPaymentPrecondition.Error()
	case errors.Is(err, domain.ErrStateConflict):
		return domain.ErrStateConflict.Error()
	default:
		return "internal error"
	}
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}

	var rle domain.RateLimitedError
	if errors.As(err, &rle) {
		secs := int(math.Ceil(rle.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
	}

	c.JSON(status, ErrorResponse{Error: publicMessage(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
