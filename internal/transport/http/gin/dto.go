package httpgin

import (
	"time"

	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/service/admin"
	"github.com/shopspring/decimal"
)

type TicketLineRequest struct {
	TicketType string `json:"ticket_type" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
}

type AttendeeRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required,min=10"`
}

type ReserveRequest struct {
	UserID        int64               `json:"user_id" binding:"required,gt=0"`
	Tickets       []TicketLineRequest `json:"tickets" binding:"required,min=1,dive"`
	AttendeeInfo  AttendeeRequest     `json:"attendee_info"`
	PaymentMethod string              `json:"payment_method"`
	Notes         string              `json:"notes" binding:"max=500"`
}

func (r ReserveRequest) lines() []domain.TicketRequest {
	out := make([]domain.TicketRequest, 0, len(r.Tickets))
	for _, t := range r.Tickets {
		out = append(out, domain.TicketRequest{TicketType: t.TicketType, Quantity: t.Quantity})
	}
	return out
}

type CancelRequest struct {
	CancellationReason string `json:"cancellation_reason" binding:"required"`
}

type CheckInRequest struct {
	BookingReference string `json:"booking_reference" binding:"required"`
}

type ConfirmPaymentRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

type TicketTypeRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	MaxPerOrder int             `json:"max_per_order" binding:"gte=0"`
}

type CreateEventRequest struct {
	OrganizerID int64               `json:"organizer_id" binding:"required,gt=0"`
	Title       string              `json:"title" binding:"required"`
	StartsAt    string              `json:"starts_at" binding:"required"`
	Status      string              `json:"status"`
	IsPublished bool                `json:"is_published"`
	TicketTypes []TicketTypeRequest `json:"ticket_types" binding:"required,min=1,dive"`
}

func (r CreateEventRequest) input(startsAt time.Time) admin.CreateEventInput {
	types := make([]admin.TicketTypeInput, 0, len(r.TicketTypes))
	for _, t := range r.TicketTypes {
		types = append(types, admin.TicketTypeInput{
			Name:        t.Name,
			Description: t.Description,
			Price:       t.Price,
			Quantity:    t.Quantity,
			MaxPerOrder: t.MaxPerOrder,
		})
	}

	return admin.CreateEventInput{
		OrganizerID: r.OrganizerID,
		Title:       r.Title,
		StartsAt:    startsAt,
		Status:      domain.EventStatus(r.Status),
		IsPublished: r.IsPublished,
		TicketTypes: types,
	}
}

type SetEventStatusRequest struct {
	Status      string `json:"status" binding:"required"`
	IsPublished *bool  `json:"is_published" binding:"required"`
}

type ListQuery struct {
	Page          int    `form:"page" binding:"omitempty,gte=1"`
	Limit         int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
	BookingStatus string `form:"booking_status"`
	PaymentStatus string `form:"payment_status"`
}

type EarningsQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type AlreadyCheckedInResponse struct {
	Error       string          `json:"error"`
	CheckInTime time.Time       `json:"check_in_time"`
	Booking     *domain.Booking `json:"booking,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseOptionalRFC3339(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	t, err := parseRFC3339(s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
