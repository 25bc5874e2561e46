package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.ValidationError{Field: "quantity", Reason: "x"}, "invalid"},
		{fmt.Errorf("wrap: %w", domain.AvailabilityConflictError{TicketType: "VIP"}), "sold_out"},
		{domain.AlreadyCheckedInError{}, "state_conflict"},
		{domain.RateLimitedError{}, "rate_limited"},
		{errors.New("db down"), "error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err))
	}
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(201))
	assert.Equal(t, "4xx", statusClass(409))
	assert.Equal(t, "5xx", statusClass(503))
}
