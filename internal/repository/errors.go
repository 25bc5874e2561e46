package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderLimit        = errors.New("order limit exceeded")
	ErrUnknownTicketType = errors.New("unknown ticket type")
	ErrReleaseUnderflow  = errors.New("release exceeds sold count")
	ErrStaleVersion      = errors.New("stale version")
)
