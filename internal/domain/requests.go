package domain

import (
	"math"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MaxNotesLength       = 500
	MinPhoneLength       = 10
	DefaultPaymentMethod = "card"
)

// NormalizeRequests trims names, merges repeated ticket types and returns the
// lines ordered by ticket type name, which is the order the ledger locks rows in.
func NormalizeRequests(reqs []TicketRequest) ([]TicketRequest, error) {
	if len(reqs) == 0 {
		return nil, ValidationError{Field: "tickets", Reason: "at least one ticket is required"}
	}

	merged := make(map[string]int, len(reqs))
	for _, r := range reqs {
		name := strings.TrimSpace(r.TicketType)
		if name == "" {
			return nil, ValidationError{Field: "ticket_type", Reason: "ticket type is required"}
		}
		if r.Quantity <= 0 {
			return nil, ValidationError{Field: "quantity", Reason: "quantity must be at least 1"}
		}
		if merged[name] > math.MaxInt-r.Quantity {
			return nil, ValidationError{Field: "quantity", Reason: "quantity is too large"}
		}
		merged[name] += r.Quantity
	}

	out := make([]TicketRequest, 0, len(merged))
	for name, q := range merged {
		out = append(out, TicketRequest{TicketType: name, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketType < out[j].TicketType })

	return out, nil
}

func NormalizeReference(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

// NormalizeAttendee trims the contact fields and lower-cases the email.
func NormalizeAttendee(a AttendeeInfo) (AttendeeInfo, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Phone = strings.TrimSpace(a.Phone)

	if a.Name == "" {
		return a, ValidationError{Field: "attendee_info.name", Reason: "attendee name is required"}
	}
	if addr, err := mail.ParseAddress(a.Email); err != nil || addr.Address != a.Email {
		return a, ValidationError{Field: "attendee_info.email", Reason: "invalid email address"}
	}
	if utf8.RuneCountInString(a.Phone) < MinPhoneLength {
		return a, ValidationError{Field: "attendee_info.phone", Reason: "phone number must be at least 10 digits"}
	}

	return a, nil
}

func NormalizeNotes(notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return "", ValidationError{Field: "notes", Reason: "notes must be at most 500 characters"}
	}
	return notes, nil
}
