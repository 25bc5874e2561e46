package domain

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAttendee(t *testing.T) {
	got, err := NormalizeAttendee(AttendeeInfo{
		Name:  "  Ada Lovelace ",
		Email: " Ada@Example.COM ",
		Phone: " +44 20 7946 0958 ",
	})
	require.NoError(t, err)
	assert.Equal(t, AttendeeInfo{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "+44 20 7946 0958"}, got)

	cases := map[string]AttendeeInfo{
		"attendee_info.name":  {Email: "a@b.io", Phone: "0123456789"},
		"attendee_info.email": {Name: "A", Email: "not-an-email", Phone: "0123456789"},
		"attendee_info.phone": {Name: "A", Email: "a@b.io", Phone: "12345"},
	}
	for field, in := range cases {
		_, err := NormalizeAttendee(in)
		var ve ValidationError
		require.ErrorAs(t, err, &ve, field)
		assert.Equal(t, field, ve.Field)
	}

	_, err = NormalizeAttendee(AttendeeInfo{Name: "A", Email: "Ada <ada@example.com>", Phone: "0123456789"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeRequests_MergeOverflow(t *testing.T) {
	_, err := NormalizeRequests([]TicketRequest{
		{TicketType: "GA", Quantity: math.MaxInt},
		{TicketType: " GA", Quantity: math.MaxInt - 2},
	})
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "quantity", ve.Field)
	assert.ErrorIs(t, err, ErrValidation)

	out, err := NormalizeRequests([]TicketRequest{
		{TicketType: "GA", Quantity: math.MaxInt - 1},
		{TicketType: "GA", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []TicketRequest{{TicketType: "GA", Quantity: math.MaxInt}}, out)
}

func TestNormalizeNotes(t *testing.T) {
	got, err := NormalizeNotes("  aisle seat please ")
	require.NoError(t, err)
	assert.Equal(t, "aisle seat please", got)

	_, err = NormalizeNotes(strings.Repeat("x", MaxNotesLength))
	assert.NoError(t, err)

	_, err = NormalizeNotes(strings.Repeat("x", MaxNotesLength+1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeReference(t *testing.T) {
	assert.Equal(t, "EH-AB12CD34E", NormalizeReference("  eh-ab12cd34e\n"))
}

func TestNewBookingPage(t *testing.T) {
	p := NewBookingPage(nil, 21, 2, 10)
	assert.NotNil(t, p.Bookings)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 2, p.Page)

	assert.Equal(t, 0, NewBookingPage(nil, 0, 1, 10).TotalPages)
}
