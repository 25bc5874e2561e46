package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrEventNotBookable     = errors.New("event is not available for booking")
	ErrAvailabilityConflict = errors.New("not enough tickets available")
	ErrOrderLimitExceeded   = errors.New("order limit exceeded")
	ErrUnknownTicketType    = errors.New("unknown ticket type")
	ErrStateConflict        = errors.New("illegal state transition")
	ErrPaymentPrecondition  = errors.New("payment is not completed")
	ErrPersistence          = errors.New("persistence failure")
	ErrRateLimited          = errors.New("too many requests")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool { return target == ErrValidation }

type AvailabilityConflictError struct {
	TicketType string
	Requested  int
	Available  int
}

func (e AvailabilityConflictError) Error() string {
	return fmt.Sprintf("only %d tickets available for %s, requested %d", e.Available, e.TicketType, e.Requested)
}

func (e AvailabilityConflictError) Is(target error) bool { return target == ErrAvailabilityConflict }

type OrderLimitExceededError struct {
	TicketType  string
	Requested   int
	MaxPerOrder int
}

func (e OrderLimitExceededError) Error() string {
	return fmt.Sprintf("maximum %d tickets allowed per order for %s, requested %d", e.MaxPerOrder, e.TicketType, e.Requested)
}

func (e OrderLimitExceededError) Is(target error) bool { return target == ErrOrderLimitExceeded }

type UnknownTicketTypeError struct {
	TicketType string
}

func (e UnknownTicketTypeError) Error() string {
	return fmt.Sprintf("ticket type %q not found", e.TicketType)
}

func (e UnknownTicketTypeError) Is(target error) bool { return target == ErrUnknownTicketType }

type StateConflictError struct {
	From   string
	Action string
}

func (e StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s from %s", e.Action, e.From)
}

func (e StateConflictError) Is(target error) bool { return target == ErrStateConflict }

// AlreadyCheckedInError is returned by a repeated check-in. It carries the
// original check-in time and matches ErrStateConflict.
type AlreadyCheckedInError struct {
	CheckInTime time.Time
}

func (e AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("already checked in at %s", e.CheckInTime.Format(time.RFC3339))
}

func (e AlreadyCheckedInError) Is(target error) bool { return target == ErrStateConflict }

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

func (e RateLimitedError) Is(target error) bool { return target == ErrRateLimited }
