package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository"
	"github.com/shopspring/decimal"
)

type BookingRepo struct {
	store *Store
}

const bookingColumns = `id, reference, event_id, user_id, organizer_id,
	total_amount, service_fee, final_amount,
	payment_status, payment_method, payment_intent_id, transaction_id,
	booking_status, attendee_name, attendee_email, attendee_phone,
	check_in_time, cancellation_reason, refund_amount, refund_date,
	notes, version, created_at, updated_at`

// Create inserts a booking and its ticket lines.
//
// Returns:
//   - error: repository.ErrConflict if the id or reference already exists.
func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Create"

	err := r.store.RunTx(ctx, func(ctx context.Context) error {
		db := r.store.handle(ctx)

		if err := db.QueryRow(ctx,
			`INSERT INTO bookings(
				id, reference, event_id, user_id, organizer_id,
				total_amount, service_fee, final_amount,
				payment_status, payment_method, booking_status,
				attendee_name, attendee_email, attendee_phone, notes
			 )
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			 RETURNING version, created_at, updated_at`,
			b.ID, b.Reference, b.EventID, b.UserID, b.OrganizerID,
			b.TotalAmount, b.ServiceFee, b.FinalAmount,
			string(b.PaymentStatus), b.PaymentMethod, string(b.BookingStatus),
			b.Attendee.Name, b.Attendee.Email, b.Attendee.Phone, b.Notes,
		).Scan(&b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return translateDBErr(err)
		}

		batch := &pgx.Batch{}
		for i, t := range b.Tickets {
			batch.Queue(
				`INSERT INTO booking_lines(booking_id, ticket_type, quantity, unit_price, subtotal, position)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				b.ID, t.TicketType, t.Quantity, t.UnitPrice, t.Subtotal, i,
			)
		}

		return translateDBErr(db.SendBatch(ctx, batch).Close())
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Get retrieves a booking by its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the booking is not found.
func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Get"

	b, err := r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return b, nil
}

func (r *BookingRepo) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.GetByReference"

	b, err := r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference = $1`, ref)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return b, nil
}

// GetForUpdate locks the booking row until the surrounding transaction ends.
// Called outside a transaction the lock is released immediately.
func (r *BookingRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.GetForUpdate"

	b, err := r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return b, nil
}

func (r *BookingRepo) GetByReferenceForUpdate(ctx context.Context, ref string) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.GetByReferenceForUpdate"

	b, err := r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference = $1 FOR UPDATE`, ref)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return b, nil
}

func (r *BookingRepo) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	const op = "postgres.BookingRepo.ReferenceExists"

	var exists bool
	if err := r.store.handle(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE reference = $1)`,
		ref,
	).Scan(&exists); err != nil {
		return false, wrapDBErr(op, err)
	}

	return exists, nil
}

// Update writes the mutable fields of a booking and bumps its version.
//
// Returns:
//   - error: repository.ErrStaleVersion if the row changed since b was read.
//   - error: repository.ErrNotFound if the booking does not exist.
func (r *BookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Update"

	db := r.store.handle(ctx)

	var refund decimal.NullDecimal
	if b.RefundAmount != nil {
		refund = decimal.NullDecimal{Decimal: *b.RefundAmount, Valid: true}
	}

	err := db.QueryRow(ctx,
		`UPDATE bookings
		 SET payment_status = $3,
		 	payment_intent_id = $4,
		 	transaction_id = $5,
		 	booking_status = $6,
		 	check_in_time = $7,
		 	cancellation_reason = $8,
		 	refund_amount = $9,
		 	refund_date = $10,
		 	notes = $11,
		 	version = version + 1,
		 	updated_at = now()
		 WHERE id = $1 AND version = $2
		 RETURNING version, updated_at`,
		b.ID, b.Version,
		string(b.PaymentStatus), b.PaymentIntentID, b.TransactionID,
		string(b.BookingStatus), b.CheckInTime, b.CancellationReason,
		refund, b.RefundDate, b.Notes,
	).Scan(&b.Version, &b.UpdatedAt)
	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return wrapDBErr(op, err)
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, b.ID).Scan(&exists); err != nil {
		return wrapDBErr(op, err)
	}
	if !exists {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return fmt.Errorf("%s:%w", op, repository.ErrStaleVersion)
}

// List returns one page of bookings matching the filter, newest first, and the
// total number of matches.
func (r *BookingRepo) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int, error) {
	const op = "postgres.BookingRepo.List"

	db := r.store.handle(ctx)

	where, args := bookingWhere(f)

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapDBErr(op, err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, f.Offset)

	rows, err := db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM bookings%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
			bookingColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, wrapDBErr(op, err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s:%w", op, err)
	}

	if err := r.loadLines(ctx, out); err != nil {
		return nil, 0, wrapDBErr(op, err)
	}

	return out, total, nil
}

// Stats aggregates an event's bookings. Revenue counts completed payments only.
func (r *BookingRepo) Stats(ctx context.Context, eventID int64) (*domain.BookingStats, error) {
	const op = "postgres.BookingRepo.Stats"

	s := domain.BookingStats{EventID: eventID}
	err := r.store.handle(ctx).QueryRow(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE booking_status = 'confirmed'),
			COUNT(*) FILTER (WHERE booking_status = 'cancelled'),
			COUNT(*) FILTER (WHERE booking_status = 'attended'),
			COUNT(*) FILTER (WHERE booking_status = 'no-show'),
			COALESCE(SUM(final_amount) FILTER (WHERE payment_status = 'completed'), 0),
			COALESCE(SUM(service_fee) FILTER (WHERE payment_status = 'completed'), 0)
		 FROM bookings
		 WHERE event_id = $1`,
		eventID,
	).Scan(
		&s.TotalBookings,
		&s.Confirmed,
		&s.Cancelled,
		&s.Attended,
		&s.NoShow,
		&s.TotalRevenue,
		&s.TotalServiceFees,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	s.NetRevenue = s.TotalRevenue.Sub(s.TotalServiceFees)

	return &s, nil
}

// Earnings sums an organizer's completed payments, optionally bounded by
// booking creation time.
func (r *BookingRepo) Earnings(ctx context.Context, organizerID int64, w domain.EarningsWindow) (*domain.Earnings, error) {
	const op = "postgres.BookingRepo.Earnings"

	e := domain.Earnings{OrganizerID: organizerID}
	err := r.store.handle(ctx).QueryRow(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(final_amount), 0),
			COALESCE(SUM(service_fee), 0)
		 FROM bookings
		 WHERE organizer_id = $1
		 	AND payment_status = 'completed'
		 	AND ($2::timestamptz IS NULL OR created_at >= $2)
		 	AND ($3::timestamptz IS NULL OR created_at <= $3)`,
		organizerID, w.From, w.To,
	).Scan(&e.TotalBookings, &e.TotalEarnings, &e.TotalServiceFees)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	e.NetEarnings = e.TotalEarnings.Sub(e.TotalServiceFees)

	return &e, nil
}

func (r *BookingRepo) getOne(ctx context.Context, sql string, arg any) (*domain.Booking, error) {
	b, err := scanBooking(r.store.handle(ctx).QueryRow(ctx, sql, arg))
	if err != nil {
		return nil, err
	}

	one := []domain.Booking{*b}
	if err := r.loadLines(ctx, one); err != nil {
		return nil, err
	}

	return &one[0], nil
}

// loadLines fills Tickets for every booking in one round trip.
func (r *BookingRepo) loadLines(ctx context.Context, bookings []domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	ids := make([]string, 0, len(bookings))
	index := make(map[uuid.UUID]int, len(bookings))
	for i, b := range bookings {
		ids = append(ids, b.ID.String())
		index[b.ID] = i
	}

	rows, err := r.store.handle(ctx).Query(ctx,
		`SELECT booking_id, ticket_type, quantity, unit_price, subtotal
		 FROM booking_lines
		 WHERE booking_id = ANY($1::uuid[])
		 ORDER BY booking_id, position`,
		ids,
	)
	if err != nil {
		return err
	}

	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var t domain.BookedTicket
		if err := rows.Scan(&id, &t.TicketType, &t.Quantity, &t.UnitPrice, &t.Subtotal); err != nil {
			return err
		}

		i := index[id]
		bookings[i].Tickets = append(bookings[i].Tickets, t)
	}

	return rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var paymentStatus, bookingStatus string
	var refund decimal.NullDecimal

	if err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.EventID,
		&b.UserID,
		&b.OrganizerID,
		&b.TotalAmount,
		&b.ServiceFee,
		&b.FinalAmount,
		&paymentStatus,
		&b.PaymentMethod,
		&b.PaymentIntentID,
		&b.TransactionID,
		&bookingStatus,
		&b.Attendee.Name,
		&b.Attendee.Email,
		&b.Attendee.Phone,
		&b.CheckInTime,
		&b.CancellationReason,
		&refund,
		&b.RefundDate,
		&b.Notes,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	b.PaymentStatus = domain.PaymentStatus(paymentStatus)
	b.BookingStatus = domain.BookingStatus(bookingStatus)
	if refund.Valid {
		amount := refund.Decimal
		b.RefundAmount = &amount
	}

	return &b, nil
}

func bookingWhere(f domain.BookingFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.EventID != 0 {
		add("event_id = $%d", f.EventID)
	}
	if f.UserID != 0 {
		add("user_id = $%d", f.UserID)
	}
	if f.OrganizerID != 0 {
		add("organizer_id = $%d", f.OrganizerID)
	}
	if f.BookingStatus != "" {
		add("booking_status = $%d", string(f.BookingStatus))
	}
	if f.PaymentStatus != "" {
		add("payment_status = $%d", string(f.PaymentStatus))
	}
	if len(f.PaymentStatuses) > 0 {
		statuses := make([]string, 0, len(f.PaymentStatuses))
		for _, s := range f.PaymentStatuses {
			statuses = append(statuses, string(s))
		}
		add("payment_status = ANY($%d::text[])", statuses)
	}

	if len(conds) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
