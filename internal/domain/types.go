package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPending   EventStatus = "pending"
	EventApproved  EventStatus = "approved"
	EventRejected  EventStatus = "rejected"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPending, EventApproved, EventRejected, EventCancelled, EventCompleted:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingAttended  BookingStatus = "attended"
	BookingNoShow    BookingStatus = "no-show"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingConfirmed, BookingCancelled, BookingAttended, BookingNoShow:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type TicketType struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	SoldCount   int             `json:"sold_count"`
	MaxPerOrder int             `json:"max_per_order"`
}

func (t TicketType) Available() int {
	return t.Quantity - t.SoldCount
}

type Event struct {
	ID          int64        `json:"id"`
	OrganizerID int64        `json:"organizer_id"`
	Title       string       `json:"title"`
	StartsAt    time.Time    `json:"starts_at"`
	Status      EventStatus  `json:"status"`
	IsPublished bool         `json:"is_published"`
	TicketTypes []TicketType `json:"ticket_types"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Bookable reports whether the externally maintained gate lets buyers reserve.
func (e *Event) Bookable() bool {
	return e.Status == EventApproved && e.IsPublished
}

func (e *Event) TicketType(name string) (TicketType, bool) {
	for _, t := range e.TicketTypes {
		if t.Name == name {
			return t, true
		}
	}
	return TicketType{}, false
}

func (e *Event) TotalTickets() int {
	var n int
	for _, t := range e.TicketTypes {
		n += t.Quantity
	}
	return n
}

func (e *Event) SoldTickets() int {
	var n int
	for _, t := range e.TicketTypes {
		n += t.SoldCount
	}
	return n
}

func (e *Event) AvailableTickets() int {
	return e.TotalTickets() - e.SoldTickets()
}

func (e *Event) IsSoldOut() bool {
	return e.AvailableTickets() <= 0
}

// Counts snapshots the derived inventory figures of the event.
func (e *Event) Counts() EventCounts {
	c := EventCounts{
		EventID:   e.ID,
		Total:     e.TotalTickets(),
		Sold:      e.SoldTickets(),
		Available: e.AvailableTickets(),
		SoldOut:   e.IsSoldOut(),
	}
	for _, t := range e.TicketTypes {
		c.Types = append(c.Types, TypeCounts{
			Name:      t.Name,
			Quantity:  t.Quantity,
			Sold:      t.SoldCount,
			Available: t.Available(),
		})
	}
	return c
}

type TypeCounts struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Sold      int    `json:"sold"`
	Available int    `json:"available"`
}

type EventCounts struct {
	EventID   int64        `json:"event_id"`
	Total     int          `json:"total"`
	Sold      int          `json:"sold"`
	Available int          `json:"available"`
	SoldOut   bool         `json:"sold_out"`
	Types     []TypeCounts `json:"types"`
}

// TicketRequest is one line of a reservation or release against the ledger.
type TicketRequest struct {
	TicketType string `json:"ticket_type"`
	Quantity   int    `json:"quantity"`
}

type BookedTicket struct {
	TicketType string          `json:"ticket_type"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type AttendeeInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Booking struct {
	ID                 uuid.UUID        `json:"id"`
	Reference          string           `json:"booking_reference"`
	EventID            int64            `json:"event_id"`
	UserID             int64            `json:"user_id"`
	OrganizerID        int64            `json:"organizer_id"`
	Tickets            []BookedTicket   `json:"tickets"`
	TotalAmount        decimal.Decimal  `json:"total_amount"`
	ServiceFee         decimal.Decimal  `json:"service_fee"`
	FinalAmount        decimal.Decimal  `json:"final_amount"`
	PaymentStatus      PaymentStatus    `json:"payment_status"`
	PaymentMethod      string           `json:"payment_method"`
	PaymentIntentID    string           `json:"payment_intent_id,omitempty"`
	TransactionID      string           `json:"transaction_id,omitempty"`
	BookingStatus      BookingStatus    `json:"booking_status"`
	Attendee           AttendeeInfo     `json:"attendee_info"`
	CheckInTime        *time.Time       `json:"check_in_time,omitempty"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`
	RefundAmount       *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundDate         *time.Time       `json:"refund_date,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	Version            int64            `json:"-"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Lines returns the ledger lines that this booking holds.
func (b *Booking) Lines() []TicketRequest {
	out := make([]TicketRequest, 0, len(b.Tickets))
	for _, t := range b.Tickets {
		out = append(out, TicketRequest{TicketType: t.TicketType, Quantity: t.Quantity})
	}
	return out
}

func (b *Booking) Quantity() int {
	var n int
	for _, t := range b.Tickets {
		n += t.Quantity
	}
	return n
}

type BookingFilter struct {
	EventID       int64
	UserID        int64
	OrganizerID   int64
	BookingStatus BookingStatus
	PaymentStatus PaymentStatus
	// PaymentStatuses matches any of the listed statuses when non-empty.
	PaymentStatuses []PaymentStatus
	Limit           int
	Offset          int
}

type BookingPage struct {
	Bookings   []Booking `json:"bookings"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
}

func NewBookingPage(bookings []Booking, total, page, limit int) *BookingPage {
	if bookings == nil {
		bookings = []Booking{}
	}

	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return &BookingPage{
		Bookings:   bookings,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: pages,
	}
}

type BookingStats struct {
	EventID          int64           `json:"event_id"`
	TotalBookings    int             `json:"total_bookings"`
	Confirmed        int             `json:"confirmed_bookings"`
	Cancelled        int             `json:"cancelled_bookings"`
	Attended         int             `json:"attended_bookings"`
	NoShow           int             `json:"no_show_bookings"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalServiceFees decimal.Decimal `json:"total_service_fees"`
	NetRevenue       decimal.Decimal `json:"net_revenue"`
}

type Earnings struct {
	OrganizerID      int64           `json:"organizer_id"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	TotalServiceFees decimal.Decimal `json:"total_service_fees"`
	NetEarnings      decimal.Decimal `json:"net_earnings"`
	TotalBookings    int             `json:"total_bookings"`
}

type EarningsWindow struct {
	From *time.Time
	To   *time.Time
}

type PaymentIntent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	ClientSecret    string    `json:"client_secret"`
	AmountMinor     int64     `json:"amount"`
	Currency        string    `json:"currency"`
}
